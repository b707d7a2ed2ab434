package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenCookieName = "__shift_pairing_token"

func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID     string `json:"clientID" validate:"required"`
		ClientSecret string `json:"clientSecret" validate:"required"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 验证客户端 ID 和密钥
	if subtle.ConstantTimeCompare([]byte(req.ClientID), []byte(h.config.APIClient.ID)) != 1 {
		h.errorResponse(w, r, "客户端不存在或密钥错误")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.config.APIClient.SecretHash), []byte(req.ClientSecret)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.errorResponse(w, r, "客户端不存在或密钥错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 生成 JWT
	now := time.Now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiration),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Subject:   req.ClientID,
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 同时通过 http-only 的 cookie 返回，方便浏览器调用
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    ss,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)

	h.successResponse(w, r, "获取令牌成功", map[string]any{
		"token":     ss,
		"expiresAt": expiration,
	})
}
