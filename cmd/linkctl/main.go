// Команда linkctl - консольный клиент сервиса сокращения ссылок.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
