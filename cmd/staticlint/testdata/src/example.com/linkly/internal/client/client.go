package client

import "net/http"

func fetch() {
	resp, _ := http.Get("http://localhost:3001/shorten")
	resp.Body.Close()
}
