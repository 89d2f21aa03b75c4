package command

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliConfig "github.com/tyemirov/claimrelay/clients/cli/internal/config"
	"github.com/tyemirov/claimrelay/internal/model"
	"github.com/tyemirov/claimrelay/pkg/attachments"
	"github.com/tyemirov/claimrelay/pkg/client"
)

type Submitter interface {
	Submit(context.Context, *client.Form) client.Outcome
}

type SubmitterFactory func(cliConfig.Config) (Submitter, error)

type Dependencies struct {
	Viper        *viper.Viper
	NewSubmitter SubmitterFactory
	Output       io.Writer
}

func NewRootCommand(dependencies Dependencies) *cobra.Command {
	root := &cobra.Command{
		Use:           "claim-cli",
		Short:         "Submit arbitration claims to the claim relay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildSubmitCommand(dependencies))
	return root
}

var fieldFlags = map[string]string{
	model.FieldDealerName:        "dealer-name",
	model.FieldDealerAccount:     "dealer-account",
	model.FieldContactName:       "contact-name",
	model.FieldContactEmail:      "contact-email",
	model.FieldContactPhone:      "contact-phone",
	model.FieldVIN:               "vin",
	model.FieldStockNumber:       "stock-number",
	model.FieldPurchaseDate:      "purchase-date",
	model.FieldPickupDate:        "pickup-date",
	model.FieldOdometerReading:   "odometer",
	model.FieldSalePrice:         "sale-price",
	model.FieldClaimType:         "claim-type",
	model.FieldDefectArea:        "defect-area",
	model.FieldRepairCost:        "repair-cost",
	model.FieldDefectDescription: "defect-description",
	model.FieldSignature:         "signature",
}

var optionFlags = map[string]string{
	cliConfig.KeyServerURL:          "server-url",
	cliConfig.KeyTimeoutSec:         "timeout",
	cliConfig.KeyLogLevel:           "log-level",
	cliConfig.KeyFiles:              "file",
	cliConfig.KeyConfirmTimeframe:   "confirm-timeframe",
	cliConfig.KeyConfirmUndisclosed: "confirm-undisclosed",
	cliConfig.KeyAcceptFees:         "accept-fees",
}

func buildSubmitCommand(dependencies Dependencies) *cobra.Command {
	var configFile string

	command := &cobra.Command{
		Use:   "submit",
		Short: "Submit one claim with its attachments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dependencies.NewSubmitter == nil {
				return errors.New("submitter is not configured")
			}
			settings := dependencies.Viper
			if settings == nil {
				settings = viper.New()
			}
			if bindError := bindFlags(cmd, settings); bindError != nil {
				return bindError
			}

			cfg, loadError := cliConfig.Load(settings, configFile)
			if loadError != nil {
				return loadError
			}

			form := &client.Form{}
			form.Claim = cfg.Claim
			form.Declarations = client.Declarations{
				Timeframe:         cfg.ConfirmTimeframe,
				UndisclosedIssue:  cfg.ConfirmUndisclosed,
				FeeResponsibility: cfg.AcceptFees,
			}
			files, attachmentError := attachments.Load(cfg.Files)
			if attachmentError != nil {
				return attachmentError
			}
			form.Files.Add(files...)
			attachmentCount := form.Files.Len()
			totalSize := form.Files.TotalSize()

			submitter, factoryError := dependencies.NewSubmitter(cfg)
			if factoryError != nil {
				return factoryError
			}

			outcome := submitter.Submit(cmd.Context(), form)

			output := dependencies.Output
			if output == nil {
				output = io.Discard
			}
			if _, writeError := fmt.Fprintf(output, "Attachments: %d (%s)\n%s\n", attachmentCount, formatSize(totalSize), outcome.Message); writeError != nil {
				return writeError
			}

			if !outcome.Succeeded() {
				return fmt.Errorf("submission %s: %s", outcome.Kind, outcome.Message)
			}
			return nil
		},
	}

	flags := command.Flags()
	flags.StringVar(&configFile, "config", "", "YAML file with claim fields and client settings")
	for _, fieldName := range model.ClaimFieldNames {
		flags.String(fieldFlags[fieldName], "", "Claim field "+fieldName)
	}
	flags.String(optionFlags[cliConfig.KeyServerURL], cliConfig.DefaultServerURL, "Relay submit endpoint")
	flags.Int(optionFlags[cliConfig.KeyTimeoutSec], int(client.DefaultTimeout.Seconds()), "Submission timeout in seconds")
	flags.String(optionFlags[cliConfig.KeyLogLevel], "WARN", "Client log level")
	flags.StringArray(optionFlags[cliConfig.KeyFiles], nil, "Attachment as path[::content-type]; repeatable")
	flags.Bool(optionFlags[cliConfig.KeyConfirmTimeframe], false, "Confirm the claim is within the arbitration timeframe")
	flags.Bool(optionFlags[cliConfig.KeyConfirmUndisclosed], false, "Confirm the issue was undisclosed at sale")
	flags.Bool(optionFlags[cliConfig.KeyAcceptFees], false, "Accept responsibility for arbitration fees")

	return command
}

// bindFlags lets explicitly set flags override environment and file values.
func bindFlags(cmd *cobra.Command, settings *viper.Viper) error {
	bindings := make(map[string]string, len(fieldFlags)+len(optionFlags))
	for key, flagName := range fieldFlags {
		bindings[key] = flagName
	}
	for key, flagName := range optionFlags {
		bindings[key] = flagName
	}
	for key, flagName := range bindings {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", flagName)
		}
		if err := settings.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", flagName, err)
		}
	}
	return nil
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	divisor, exponent := int64(unit), 0
	for remaining := bytes / unit; remaining >= unit; remaining /= unit {
		divisor *= unit
		exponent++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(divisor), "KMGTPE"[exponent])
}
