package config

import "os"

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Environment variables read by ApplyEnv.
const (
	EnvCorpus        = "POSTBOT_CORPUS"
	EnvLedger        = "POSTBOT_LEDGER"
	EnvLock          = "POSTBOT_LOCK"
	EnvXAccessToken  = "POSTBOT_X_ACCESS_TOKEN"
	EnvXRefreshToken = "POSTBOT_X_REFRESH_TOKEN"
	EnvXClientID     = "POSTBOT_X_CLIENT_ID"
	EnvXClientSecret = "POSTBOT_X_CLIENT_SECRET"
)

// ApplyEnv overrides fields from the environment. Set-but-empty variables
// are ignored. A nil lookup uses os.LookupEnv.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for key, field := range map[string]*string{
		EnvCorpus:        &c.Corpus.Path,
		EnvLedger:        &c.Ledger.Path,
		EnvLock:          &c.Lock.Path,
		EnvXAccessToken:  &c.Publisher.AccessToken,
		EnvXRefreshToken: &c.Publisher.RefreshToken,
		EnvXClientID:     &c.Publisher.ClientID,
		EnvXClientSecret: &c.Publisher.ClientSecret,
	} {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}
}
