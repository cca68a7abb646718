package main

import (
	"net/http"
	"os"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	resp, err := http.Get("http://localhost:" + port + "/_admin/mocks")
	if err != nil || resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
