package providers

import (
	"net/http"

	"aidanwoods.dev/go-paseto"
	"github.com/samber/do/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/auth"
	"github.com/digitallifelessons/lifelessons-server/internal/config"
	"github.com/digitallifelessons/lifelessons-server/internal/logger"
)

// ProvideVerifier provides the bearer token verifier for the configured
// identity mode.
func ProvideVerifier(i do.Injector) (auth.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Identity.Mode == config.IdentityUserinfo {
		userinfo := auth.NewUserinfoVerifier(cfg.Identity.UserinfoURL, &http.Client{Timeout: userinfoTimeout})
		log.Info("Identity verification via userinfo endpoint",
			"endpoint", cfg.Identity.UserinfoURL,
			"cache_ttl", cfg.Identity.CacheTTL,
		)
		return auth.NewCachingVerifier(userinfo, cfg.Identity.CacheTTL), nil
	}

	publicKey, err := loadPublicKey(cfg, log)
	if err != nil {
		return nil, err
	}

	log.Info("Identity verification via PASETO",
		"issuer", cfg.Identity.Issuer,
		"audience", cfg.Identity.Audience,
	)
	return auth.NewPasetoVerifier(publicKey, cfg.Identity.Issuer, cfg.Identity.Audience), nil
}

// loadPublicKey parses the configured provider key. Without one, which config
// only allows outside production, the dev key pair under the data path is
// used so cmd/seed can mint tokens the server accepts.
func loadPublicKey(cfg *config.Config, log *logger.Logger) (paseto.V4AsymmetricPublicKey, error) {
	if cfg.Identity.PublicKeyHex != "" {
		return auth.ParsePublicKey(cfg.Identity.PublicKeyHex)
	}

	secretKey, err := auth.LoadOrGenerateKeyPair(cfg.Store.DataPath)
	if err != nil {
		return paseto.V4AsymmetricPublicKey{}, err
	}
	log.Warn("IDENTITY_PUBLIC_KEY not set, using development key pair", "dir", cfg.Store.DataPath)
	return secretKey.Public(), nil
}
