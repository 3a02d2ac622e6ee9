package cmd

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var keygenCmd = cobra.Command{
	Use:   "keygen",
	Short: "Generate an Ed25519 key pair for signing test messages",
	RunE:  keygen,
}

type keyPair struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

func keygen(cmd *cobra.Command, args []string) error {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return errors.Wrap(err, "unable to generate key")
	}

	return printJSON(cmd, keyPair{
		Address:    base58.Encode(publicKey),
		PrivateKey: base58.Encode(privateKey),
	})
}
