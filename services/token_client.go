package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// TokenClient talks to the external token economy. Starting someone
// else's tour costs one token; the debit happens before any session
// row is written so a failed charge creates nothing.
type TokenClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewTokenClient(baseURL, serviceToken string) *TokenClient {
	return &TokenClient{
		BaseURL: baseURL,
		Token:   serviceToken,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Debit charges amount tokens from the user's balance. An insufficient
// balance maps to ErrInsufficientTokens; transport errors pass through.
func (c *TokenClient) Debit(userID string, amount int64) error {
	url := fmt.Sprintf("%s/wallet/debit", c.BaseURL)

	reqBody := map[string]interface{}{
		"user_id": userID,
		"amount":  amount,
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusPaymentRequired, http.StatusConflict:
		return ErrInsufficientTokens
	default:
		log.Printf("TokenService /wallet/debit returned %d: %s", resp.StatusCode, string(body))
		return fmt.Errorf("token debit failed: %d", resp.StatusCode)
	}
}
