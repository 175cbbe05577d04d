package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func main() {
	baseURL := flag.String("server", envOr("ALMA_SERVER_URL", "http://127.0.0.1:8080"), "server URL (ex: http://127.0.0.1:8080)")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}
	api := strings.TrimRight(*baseURL, "/") + "/api/v1"

	switch args[0] {
	case "health":
		get(client, api+"/health")
	case "version":
		get(client, api+"/version")
	case "generate":
		// generate [date] [-regenerate]
		body := map[string]any{}
		rest := args[1:]
		if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
			body["date"] = rest[0]
			rest = rest[1:]
		}
		for _, a := range rest {
			if a == "-regenerate" || a == "--regenerate" {
				body["regenerate"] = true
			}
		}
		post(client, api+"/sessions/generate", body)
	case "preview":
		u := api + "/sessions/preview"
		if len(args) > 1 {
			u += "?date=" + url.QueryEscape(args[1])
		}
		get(client, u)
	case "session":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: alma session <YYYY-MM-DD>")
			os.Exit(2)
		}
		get(client, api+"/sessions/"+url.PathEscape(args[1]))
	case "sessions":
		get(client, api+"/sessions/")
	case "request":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, `Usage: alma request "two bluey episodes tomorrow"`)
			os.Exit(2)
		}
		post(client, api+"/requests/", map[string]any{"text": strings.Join(args[1:], " ")})
	case "episodes":
		get(client, api+"/episodes/")
	case "series":
		get(client, api+"/episodes/series")
	default:
		fmt.Fprintln(os.Stderr, "Unknown command:", args[0])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: alma [health|version|generate|preview|session|sessions|request|episodes|series]")
}

func get(client *http.Client, url string) {
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	render(resp)
}

func post(client *http.Client, url string, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	render(resp)
}

func render(resp *http.Response) {
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	var pretty any
	if err := json.Unmarshal(b, &pretty); err == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(pretty)
		if resp.StatusCode >= 400 {
			os.Exit(1)
		}
		return
	}

	os.Stdout.Write(b)
	os.Stdout.Write([]byte("\n"))
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
