package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/operas/contact-relay/internal/config"
	"github.com/operas/contact-relay/internal/email"
	"github.com/operas/contact-relay/internal/logger"
	"github.com/operas/contact-relay/internal/model"
	"github.com/operas/contact-relay/internal/service"
)

var rootCmd = &cobra.Command{
	Use:          "relayctl",
	Short:        "Operator tool for the contact relay",
	SilenceUsage: true,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and open an authenticated session with the relay",
	RunE:  runCheck,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one contact message through the relay",
	RunE:  runSend,
}

var (
	timeout time.Duration
	sub     model.ContactSubmission
)

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline for the relay session")

	sendCmd.Flags().StringVar(&sub.Name, "name", "", "sender name")
	sendCmd.Flags().StringVar(&sub.Email, "email", "", "sender email, used as Reply-To")
	sendCmd.Flags().StringVar(&sub.Subject, "subject", "", "subject, appended to the configured prefix")
	sendCmd.Flags().StringVar(&sub.Message, "message", "", "message body")
	for _, name := range model.RequiredFields {
		_ = sendCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(sendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("provider:  %s\n", cfg.Mail.Provider)
	fmt.Printf("relay:     %s (starttls %s)\n", cfg.SMTP.Addr(), cfg.SMTP.StartTLS)
	fmt.Printf("recipient: %s\n", cfg.Mail.Recipient)

	if cfg.CredentialsMissing() {
		return errors.New("relay credentials missing")
	}

	if cfg.Mail.Provider != config.ProviderSMTP {
		fmt.Println("credentials present, session probe only applies to smtp")
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := email.NewSMTPSender(cfg.SMTP).Probe(ctx); err != nil {
		return fmt.Errorf("relay probe failed (%s): %w", email.Classify(err), err)
	}

	fmt.Println("relay accepted session")
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log.Level, "console")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	sender, err := email.NewSender(ctx, *cfg)
	if err != nil && !errors.Is(err, email.ErrCredentialsMissing) {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}

	result := service.NewContactService(*cfg, sender, log).Submit(ctx, sub)
	if !result.OK() {
		return fmt.Errorf("%s: %w", result.Kind, result.Err)
	}

	fmt.Printf("sent to %s\n", cfg.Mail.Recipient)
	return nil
}
