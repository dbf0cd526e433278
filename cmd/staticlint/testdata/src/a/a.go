package a

import "net/http"

func fetch() {
	resp, _ := http.Get("http://localhost:3001/shorten") // want `use internal/client instead of http.Get`
	resp.Body.Close()

	http.PostForm("http://localhost:3001/shorten", nil) // want `use internal/client instead of http.PostForm`

	c := http.DefaultClient // want `use internal/client instead of http.DefaultClient`
	_ = c

	req, _ := http.NewRequest(http.MethodGet, "http://localhost:3001/shorten", nil)
	_ = req
	_ = http.StatusOK
}
