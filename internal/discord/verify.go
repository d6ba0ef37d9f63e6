package discord

import (
	"crypto/ed25519"
	"encoding/hex"
	"log/slog"
)

// Verifier проверяет подпись входящих запросов Discord.
type Verifier struct {
	key    ed25519.PublicKey
	logger *slog.Logger
}

// NewVerifier создаёт верификатор по ключу в hex. Пустой или испорченный ключ
// не приводит к ошибке: такой верификатор отклоняет все запросы.
func NewVerifier(publicKeyHex string, logger *slog.Logger) *Verifier {
	v := &Verifier{logger: logger}
	if publicKeyHex == "" {
		return v
	}
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(key) != ed25519.PublicKeySize {
		logger.Error("Discord public key is malformed")
		return v
	}
	v.key = ed25519.PublicKey(key)
	return v
}

// Verify возвращает true, только если signature является корректной подписью timestamp+body.
func (v *Verifier) Verify(body []byte, signature, timestamp string) bool {
	if v.key == nil {
		v.logger.Error("Signature verification failed", "reason", "public key is not set")
		return false
	}
	if signature == "" || timestamp == "" {
		v.logger.Warn("Signature verification failed", "reason", "missing signature headers")
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		v.logger.Warn("Signature verification failed", "reason", "malformed signature")
		return false
	}

	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	msg = append(msg, body...)
	if !ed25519.Verify(v.key, msg, sig) {
		v.logger.Warn("Signature verification failed", "reason", "signature mismatch")
		return false
	}
	return true
}
