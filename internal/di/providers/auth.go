package providers

import (
	"encoding/hex"

	"github.com/samber/do/v2"

	"github.com/reelvault/reelvault-server/internal/auth"
	"github.com/reelvault/reelvault-server/internal/config"
	"github.com/reelvault/reelvault-server/internal/logger"
)

// AuthKeyHex is the hex-encoded PASETO symmetric key.
type AuthKeyHex string

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKeyHex, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return "", err
	}

	// Keep the raw bytes in config for anything that needs them.
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return "", err
	}
	cfg.Auth.AccessTokenKey = keyBytes

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)

	return AuthKeyHex(keyHex), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	keyHex := do.MustInvoke[AuthKeyHex](i)

	return auth.NewTokenService(string(keyHex), cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}
