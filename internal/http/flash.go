package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const flashCookie = "flash"

// Flash is a one-shot notice shown on the page after a redirect.
type Flash struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

type flashClaims struct {
	Flash Flash `json:"flash"`
	jwt.RegisteredClaims
}

// FlashStore keeps the pending flash in a signed cookie. The reader clears
// it so each flash renders exactly once.
type FlashStore struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewFlashStore(secret string, ttl time.Duration, secure bool) *FlashStore {
	return &FlashStore{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Set signs f and attaches it to the response.
func (s *FlashStore) Set(w http.ResponseWriter, f Flash) error {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, flashClaims{
		Flash: f,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("sign flash: %w", err)
	}
	http.SetCookie(w, s.cookie(signed, int(s.ttl.Seconds())))
	return nil
}

// Pop returns the pending flash, or nil when there is none or the cookie
// does not verify. Any flash cookie present is cleared.
func (s *FlashStore) Pop(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, s.cookie("", -1))

	f, err := s.parse(c.Value)
	if err != nil {
		return nil
	}
	return f
}

func (s *FlashStore) parse(raw string) (*Flash, error) {
	claims := &flashClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if claims.Flash.Msg == "" {
		return nil, errors.New("empty flash")
	}
	return &claims.Flash, nil
}

func (s *FlashStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
