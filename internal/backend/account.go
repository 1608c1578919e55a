package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login возвращает токен пользователя, выданный бэкендом
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	raw, err := c.call(ctx, "login", http.MethodPost, "/login", "", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	return decodeToken(raw)
}

func (c *Client) Signup(ctx context.Context, username, email, password string) (string, error) {
	raw, err := c.call(ctx, "signup", http.MethodPost, "/signup", "", signupRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return "", err
	}
	return decodeToken(raw)
}

func decodeToken(raw []byte) (string, error) {
	var payload json.RawMessage
	if err := decodeEnvelope(raw, &payload, "token"); err != nil {
		return "", err
	}

	var token string
	if err := json.Unmarshal(payload, &token); err != nil {
		var obj struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(payload, &obj); err != nil {
			return "", errors.New("backend: token missing in response")
		}
		token = obj.Token
	}
	if token == "" {
		return "", errors.New("backend: token missing in response")
	}
	return token, nil
}
