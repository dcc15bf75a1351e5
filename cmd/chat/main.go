// Command chat is a terminal client for a running assistant.
//
//	CHAT_BASE_URL  server api root (default http://localhost:3000/api)
//	CHAT_TOKEN     bearer token; when empty and JWT_SECRET is set a token is
//	               minted for CHAT_USER_ID / CHAT_ROLE, otherwise you chat as a guest
//
// Commands: /history, /clear, /quit.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"commerce-assistant/internal/dto"
	"commerce-assistant/internal/pkg/serverutils"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

type client struct {
	baseURL   string
	token     string
	sessionID string
	http      *http.Client
}

func (c *client) send(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	envelope := serverutils.Response{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s: undecodable response: %w", resp.Status, err)
	}
	if !envelope.Success {
		return fmt.Errorf("%s: %s", resp.Status, envelope.Message)
	}
	return nil
}

func mintToken() string {
	secret := os.Getenv("JWT_SECRET")
	userID := os.Getenv("CHAT_USER_ID")
	if secret == "" || userID == "" {
		return ""
	}
	role := os.Getenv("CHAT_ROLE")
	if role == "" {
		role = "user"
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		color.Red("Failed to mint token: %v", err)
		return ""
	}
	return s
}

func printAnswer(res *dto.ChatResponse) {
	color.Green("🤖 %s", res.Answer)
	color.HiBlack("   intent=%s type=%s session=%s", res.Intent, res.Type, res.SessionId)
	for i, p := range res.SuggestedProducts {
		color.Cyan("   %d. %s (%s)", i+1, p.Name, p.Category)
	}
	if res.RequiresMeasurements {
		color.Yellow("   missing: %s", strings.Join(res.MissingFields, ", "))
	}
	if res.RecommendedSize != "" {
		color.Yellow("   recommended size: %s", res.RecommendedSize)
	}
	if a := res.SuggestedAction; a != nil {
		color.Magenta("   action: %s product=%s variant=%s %s %s", a.Type, a.ProductId, a.VariantId, a.Size, a.Color)
	}
	if a := res.Attachment; a != nil {
		color.Magenta("   attachment: %s %s", a.Name, a.Url)
	}
}

func main() {
	_ = godotenv.Load()

	c := &client{
		baseURL: strings.TrimRight(os.Getenv("CHAT_BASE_URL"), "/"),
		token:   os.Getenv("CHAT_TOKEN"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
	if c.baseURL == "" {
		c.baseURL = "http://localhost:3000/api"
	}
	if c.token == "" {
		c.token = mintToken()
	}

	if c.token == "" {
		color.Cyan("Chatting as a guest with %s", c.baseURL)
	} else {
		color.Cyan("Chatting as %s with %s", os.Getenv("CHAT_USER_ID"), c.baseURL)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(color.BlueString("🧑 "))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit":
			return
		case "/clear":
			if err := c.send(http.MethodDelete, "/chat/context", nil, nil); err != nil {
				color.Red("Failed: %v", err)
				continue
			}
			c.sessionID = ""
			color.Yellow("Context cleared")
			continue
		case "/history":
			var history []*dto.ChatHistoryResponse
			if err := c.send(http.MethodGet, "/chat/history", nil, &history); err != nil {
				color.Red("Failed: %v", err)
				continue
			}
			for i := len(history) - 1; i >= 0; i-- {
				h := history[i]
				color.HiBlack("[%s] %s: %s", h.CreatedAt.Format("15:04:05"), h.Role, h.Content)
			}
			continue
		}

		var res dto.ChatResponse
		err := c.send(http.MethodPost, "/chat", dto.ChatRequest{SessionID: c.sessionID, Message: line}, &res)
		if err != nil {
			color.Red("Failed: %v", err)
			continue
		}
		c.sessionID = res.SessionId
		printAnswer(&res)
	}
}
