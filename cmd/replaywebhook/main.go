// Command replaywebhook signs a stored provider event and posts it to a
// running server, for local testing of the webhook endpoint.
//
//	STRIPE_WEBHOOK_SECRET=whsec_x replaywebhook event.json
package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"odenehouk/pkg/payment"
)

const defaultURL = "http://localhost:4000/api/webhooks/stripe"

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: replaywebhook <event.json>")
		os.Exit(2)
	}
	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		log.Fatal("STRIPE_WEBHOOK_SECRET is required")
	}
	url := os.Getenv("WEBHOOK_URL")
	if url == "" {
		url = defaultURL
	}

	payload, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("read fixture: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(payment.SignatureHeader, payment.Sign(payload, secret, time.Now()))

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%d %s\n", resp.StatusCode, bytes.TrimSpace(body))
	if resp.StatusCode >= 300 {
		os.Exit(1)
	}
}
