package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/funnelalchemy/prospect-scorer/internal/mockmodel"
)

func main() {
	addr := defaultString("MOCK_MODEL_ADDR", ":8090")

	fs := flag.NewFlagSet("mock-model", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	_ = fs.Parse(os.Args[1:])

	srv := mockmodel.New()

	_, _ = fmt.Fprintf(os.Stdout, "mock-model listening on %s\n", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
