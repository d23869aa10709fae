package services

import (
	cryptorand "crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"
)

type argon2Params struct {
	time       uint32
	memory     uint32
	threads    uint8
	saltLength int
	keyLength  uint32
}

var (
	claimParamsOnce sync.Once
	claimParams     argon2Params
)

// claimCodeParams resolves the argon2 settings once. Viper is only read here;
// defaults are applied in code so concurrent claims never write to it.
func claimCodeParams() argon2Params {
	claimParamsOnce.Do(func() {
		claimParams = argon2Params{
			time:       uint32(viper.GetInt("argon2.time")),
			memory:     uint32(viper.GetInt("argon2.memory")),
			threads:    uint8(viper.GetInt("argon2.threads")),
			saltLength: viper.GetInt("argon2.salt_length"),
			keyLength:  uint32(viper.GetInt("argon2.key_length")),
		}
		// argon2 panics on a zero time or thread count
		if claimParams.time == 0 {
			claimParams.time = 1
		}
		if claimParams.memory == 0 {
			claimParams.memory = 64 * 1024
		}
		if claimParams.threads == 0 {
			claimParams.threads = 4
		}
		if claimParams.saltLength <= 0 {
			claimParams.saltLength = 16
		}
		if claimParams.keyLength == 0 {
			claimParams.keyLength = 32
		}
	})
	return claimParams
}

// normalizeClaimCode only strips surrounding whitespace; codes are case-sensitive.
func normalizeClaimCode(code string) string {
	return strings.TrimSpace(code)
}

// HashClaimCode returns "salt$hash", both base64.
func HashClaimCode(code string) (string, error) {
	p := claimCodeParams()
	salt := make([]byte, p.saltLength)
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(normalizeClaimCode(code)), salt, p.time, p.memory, p.threads, p.keyLength)
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func VerifyClaimCode(code, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(hash) == 0 {
		return false
	}

	p := claimCodeParams()
	computed := argon2.IDKey([]byte(normalizeClaimCode(code)), salt, p.time, p.memory, p.threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, computed) == 1
}
