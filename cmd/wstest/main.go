// Package main provides a load testing tool for the notification WebSocket
// endpoint: it logs in, opens N connections, joins a post room and counts the
// frames it receives.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type metrics struct {
	connectionsAttempted int64
	connectionsSuccess   int64
	connectionsFailed    int64
	framesReceived       int64
	errorFrames          int64
}

var stats metrics

func main() {
	host := flag.String("host", "localhost:3000", "API server host")
	email := flag.String("email", "admin@example.com", "Test user email")
	password := flag.String("password", "Password123!", "Test user password")
	clients := flag.Int("clients", 5, "Number of concurrent connections")
	postID := flag.String("post", "1", "Post room to join")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	log.Printf("Logged in as %s", *email)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, *postID, i, stop, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("Test duration reached")
	case <-interrupt:
		log.Println("Interrupted")
	}

	close(stop)
	wg.Wait()

	log.Printf("connections: %d attempted, %d ok, %d failed",
		atomic.LoadInt64(&stats.connectionsAttempted),
		atomic.LoadInt64(&stats.connectionsSuccess),
		atomic.LoadInt64(&stats.connectionsFailed))
	log.Printf("frames: %d received, %d errors",
		atomic.LoadInt64(&stats.framesReceived),
		atomic.LoadInt64(&stats.errorFrames))
}

func login(host, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/auth/login", host),
		"application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

func runClient(host, token, postID string, id int, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	atomic.AddInt64(&stats.connectionsAttempted, 1)
	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "token=" + url.QueryEscape(token)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&stats.connectionsFailed, 1)
		log.Printf("client %d: dial failed: %v", id, err)
		return
	}
	atomic.AddInt64(&stats.connectionsSuccess, 1)
	defer func() { _ = conn.Close() }()

	join, _ := json.Marshal(map[string]any{"event": "joinPostRoom", "data": postID})
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		log.Printf("client %d: join failed: %v", id, err)
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&stats.framesReceived, 1)

			var frame struct {
				Event string `json:"event"`
			}
			if json.Unmarshal(message, &frame) == nil && frame.Event == "error" {
				atomic.AddInt64(&stats.errorFrames, 1)
			}
		}
	}()

	select {
	case <-stop:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}
