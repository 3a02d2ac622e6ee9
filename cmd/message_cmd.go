package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/supabase/siws/internal/siws"
)

func messageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Prepare, parse, sign and verify Sign-In with Solana messages",
	}

	cmd.AddCommand(
		messagePrepareCmd(),
		messageParseCmd(),
		messageSignCmd(),
		messageVerifyCmd(),
	)

	return cmd
}

// readInput reads the file named by args, or stdin when there is none.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", args[0])
	}
	return data, nil
}

// readMessage reads and parses canonical message text. A single trailing
// newline, as left by editors and shells, is dropped.
func readMessage(cmd *cobra.Command, args []string) (*siws.Message, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}

	m, err := siws.ParseMessage(strings.TrimSuffix(string(data), "\n"))
	if err != nil {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(v), "unable to encode output")
}

func messagePrepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare [payload.json]",
		Short: "Print the canonical text of a JSON payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var payload siws.Payload
			if err := json.Unmarshal(data, &payload); err != nil {
				return errors.Wrap(err, "unable to parse payload")
			}

			if payload.Version == "" {
				payload.Version = "1"
			}

			m, err := siws.NewMessage(payload)
			if err != nil {
				return err
			}

			text, err := m.PrepareMessage()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func messageParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [message.txt]",
		Short: "Print the JSON payload of a canonical message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readMessage(cmd, args)
			if err != nil {
				return err
			}

			return printJSON(cmd, m.Payload)
		},
	}
}

func messageSignCmd() *cobra.Command {
	var privateKey string

	cmd := &cobra.Command{
		Use:   "sign [message.txt]",
		Short: "Sign a canonical message with a base58 Ed25519 private key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if privateKey == "" {
				privateKey = os.Getenv("SIWS_PRIVATE_KEY")
			}

			signer, err := siws.NewEd25519SignerFromBase58(privateKey)
			if err != nil {
				return err
			}

			m, err := readMessage(cmd, args)
			if err != nil {
				return err
			}

			if m.Payload.Address != signer.Address() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: message address %s does not match key address %s\n", m.Payload.Address, signer.Address())
			}

			signature, err := siws.SignMessage(cmd.Context(), signer, m)
			if err != nil {
				return err
			}

			return printJSON(cmd, signature)
		},
	}

	cmd.Flags().StringVar(&privateKey, "private-key", "", "base58 private key or seed (default $SIWS_PRIVATE_KEY)")

	return cmd
}

func messageVerifyCmd() *cobra.Command {
	var (
		signature     string
		signatureType string
		domain        string
		nonce         string
	)

	cmd := &cobra.Command{
		Use:   "verify [message.txt]",
		Short: "Verify a signed canonical message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readMessage(cmd, args)
			if err != nil {
				return err
			}

			result := m.Verify(cmd.Context(), siws.VerifyParams{
				Payload: siws.Payload{
					Domain: domain,
					Nonce:  nonce,
				},
				Signature: siws.Signature{
					Type:  siws.HeaderType(signatureType),
					Value: signature,
				},
			})

			if err := printJSON(cmd, result); err != nil {
				return err
			}

			if !result.Success {
				return result.Error
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&signature, "signature", "", "base58 signature")
	cmd.Flags().StringVar(&signatureType, "type", string(siws.HeaderTypeSIP99), "signature type")
	cmd.Flags().StringVar(&domain, "domain", "", "expected domain")
	cmd.Flags().StringVar(&nonce, "nonce", "", "expected nonce")

	_ = cmd.MarkFlagRequired("signature")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("nonce")

	return cmd
}
