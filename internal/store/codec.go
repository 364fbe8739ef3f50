package store

import (
	"encoding/json"
	"fmt"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/vaultcrypto"
)

// Codec turns the document into the bytes kept in storage
type Codec interface {
	Encode(doc *model.Document) ([]byte, error)
	Decode(data []byte) (*model.Document, error)
}

// JSONCodec stores the document as plain JSON
type JSONCodec struct{}

func (JSONCodec) Encode(doc *model.Document) ([]byte, error) {
	return json.Marshal(doc)
}

func (JSONCodec) Decode(data []byte) (*model.Document, error) {
	if vaultcrypto.IsSealed(data) {
		return nil, ErrLocked
	}
	doc, err := model.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc, nil
}

// SealedCodec encrypts the JSON document with a passphrase. A plain
// document is still readable and gets sealed by the next write.
type SealedCodec struct {
	Sealer *vaultcrypto.Sealer
}

// NewSealedCodec returns a codec sealing with passphrase
func NewSealedCodec(passphrase string) (*SealedCodec, error) {
	s, err := vaultcrypto.NewSealer(passphrase)
	if err != nil {
		return nil, err
	}
	return &SealedCodec{Sealer: s}, nil
}

func (c *SealedCodec) Encode(doc *model.Document) ([]byte, error) {
	plain, err := JSONCodec{}.Encode(doc)
	if err != nil {
		return nil, err
	}
	return c.Sealer.Seal(plain)
}

func (c *SealedCodec) Decode(data []byte) (*model.Document, error) {
	if !vaultcrypto.IsSealed(data) {
		return JSONCodec{}.Decode(data)
	}
	plain, err := c.Sealer.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocked, err)
	}
	return JSONCodec{}.Decode(plain)
}
