package s3

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// ageHeader es el prefijo de todo archivo cifrado con age.
const ageHeader = "age-encryption.org/v1"

// Sealer cifra las fotos con age antes de subirlas. Un *Sealer nil o sin
// destinatarios deja el contenido en claro.
type Sealer struct {
	recipients []age.Recipient
	identities []age.Identity
}

// NewSealer parsea recipient (clave pública "age1...") y, si se indica, el
// archivo de identidades usado para descifrar.
func NewSealer(recipient, identityPath string) (*Sealer, error) {
	s := &Sealer{}

	if r := strings.TrimSpace(recipient); r != "" {
		recipients, err := age.ParseRecipients(strings.NewReader(r))
		if err != nil {
			return nil, fmt.Errorf("parsing age recipient: %w", err)
		}
		s.recipients = recipients
	}

	if p := strings.TrimSpace(identityPath); p != "" {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("opening age identity: %w", err)
		}
		defer f.Close()

		identities, err := age.ParseIdentities(f)
		if err != nil {
			return nil, fmt.Errorf("parsing age identity: %w", err)
		}
		s.identities = identities
	}

	return s, nil
}

func (s *Sealer) Encrypts() bool { return s != nil && len(s.recipients) > 0 }

func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	if !s.Encrypts() {
		return plain, nil
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		return nil, fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Open descifra data si viene cifrada; si está en claro la devuelve tal cual.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte(ageHeader)) {
		return data, nil
	}
	if s == nil || len(s.identities) == 0 {
		return nil, fmt.Errorf("snapshot is encrypted and no age identity is configured")
	}

	r, err := age.Decrypt(bytes.NewReader(data), s.identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting snapshot: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted snapshot: %w", err)
	}
	return plain, nil
}
