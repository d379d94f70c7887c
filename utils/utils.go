package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

const (
	lowerAlnum = "0123456789abcdefghijklmnopqrstuvwxyz"
	urlSafe    = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_-"
)

// GetUUID is the id of records nobody has to type.
func GetUUID() string {
	return uuid.New().String()
}

// GenerateID returns n random characters from [0-9a-z]. Used for invitation ids
// that guests may have to type.
func GenerateID(n int) string {
	return randomString(lowerAlnum, n)
}

// GenerateSecret returns n random URL-safe characters.
func GenerateSecret(n int) string {
	return randomString(urlSafe, n)
}

func randomString(alphabet string, n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// NoCache marks a response as never cacheable.
func NoCache(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// TokenDigest is the stored form of an admin API token.
func TokenDigest(secret string) string {
	sum := sha3.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
