package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Supported MAIL_PROVIDER values.
const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
	ProviderSES    = "ses"
	ProviderDryRun = "dryrun"
)

const (
	defaultLogLevel             = "INFO"
	defaultHTTPListenAddr       = ":8080"
	defaultMailProvider         = ProviderResend
	defaultResendAPIURL         = "https://api.resend.com/emails"
	defaultResendFrom           = "onboarding@resend.dev"
	defaultSMTPFrom             = "no-reply@example.com"
	defaultSMTPHost             = "smtp.gmail.com"
	defaultSMTPPort             = 587
	defaultOperationTimeoutSec  = 20
	defaultSubmitRatePerMin     = 30
	defaultMaxMultipartMemoryMB = 32
	defaultShutdownGraceSec     = 10
)

// Config holds the relay server settings. Provider credentials are optional at
// startup; the relay reports their absence on each submission.
type Config struct {
	LogLevel string

	HTTPListenAddr     string
	HTTPStaticRoot     string
	HTTPAllowedOrigins []string
	HTTPTrustedProxies []string

	MailProvider string
	MailTo       string
	MailFrom     string

	ResendAPIKey string
	ResendAPIURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	AWSRegion string

	OperationTimeoutSec  int
	SubmitRatePerMin     int
	MaxMultipartMemoryMB int
	ShutdownGraceSec     int
}

// LoadConfig reads the environment concurrently and aggregates every invalid value into one error.
func LoadConfig() (Config, error) {
	var configuration Config
	var waitGroup sync.WaitGroup

	taskFunctions := []func() error{
		loadEnvString("LOG_LEVEL", defaultLogLevel, &configuration.LogLevel),
		loadEnvString("HTTP_LISTEN_ADDR", defaultHTTPListenAddr, &configuration.HTTPListenAddr),
		loadEnvString("HTTP_STATIC_ROOT", "", &configuration.HTTPStaticRoot),
		loadEnvString("MAIL_PROVIDER", defaultMailProvider, &configuration.MailProvider),
		loadEnvString("MAIL_TO", "", &configuration.MailTo),
		loadEnvString("RESEND_API_KEY", "", &configuration.ResendAPIKey),
		loadEnvString("RESEND_API_URL", defaultResendAPIURL, &configuration.ResendAPIURL),
		loadEnvString("SMTP_HOST", defaultSMTPHost, &configuration.SMTPHost),
		loadEnvInt("SMTP_PORT", defaultSMTPPort, &configuration.SMTPPort),
		loadEnvString("SMTP_USERNAME", "", &configuration.SMTPUsername),
		loadEnvString("SMTP_PASSWORD", "", &configuration.SMTPPassword),
		loadEnvString("AWS_REGION", "", &configuration.AWSRegion),
		loadEnvInt("OPERATION_TIMEOUT_SEC", defaultOperationTimeoutSec, &configuration.OperationTimeoutSec),
		loadEnvInt("SUBMIT_RATE_PER_MIN", defaultSubmitRatePerMin, &configuration.SubmitRatePerMin),
		loadEnvInt("MAX_MULTIPART_MEMORY_MB", defaultMaxMultipartMemoryMB, &configuration.MaxMultipartMemoryMB),
		loadEnvInt("SHUTDOWN_GRACE_SEC", defaultShutdownGraceSec, &configuration.ShutdownGraceSec),
	}

	errorChannel := make(chan error, len(taskFunctions))
	for _, taskFunction := range taskFunctions {
		waitGroup.Add(1)
		go func(task func() error) {
			defer waitGroup.Done()
			if taskError := task(); taskError != nil {
				errorChannel <- taskError
			}
		}(taskFunction)
	}

	waitGroup.Wait()
	close(errorChannel)

	var errorMessages []string
	for errorValue := range errorChannel {
		errorMessages = append(errorMessages, errorValue.Error())
	}

	configuration.MailProvider = strings.ToLower(configuration.MailProvider)
	switch configuration.MailProvider {
	case ProviderResend, ProviderSMTP, ProviderSES, ProviderDryRun:
	default:
		errorMessages = append(errorMessages, fmt.Sprintf("unsupported MAIL_PROVIDER %q", configuration.MailProvider))
	}

	if len(errorMessages) > 0 {
		sort.Strings(errorMessages)
		return Config{}, fmt.Errorf("configuration errors: %s", strings.Join(errorMessages, ", "))
	}

	// App passwords are often pasted with the grouping spaces intact.
	configuration.SMTPPassword = strings.ReplaceAll(configuration.SMTPPassword, " ", "")
	configuration.HTTPAllowedOrigins = parseCSV(os.Getenv("HTTP_ALLOWED_ORIGINS"))
	configuration.HTTPTrustedProxies = parseCSV(os.Getenv("HTTP_TRUSTED_PROXIES"))
	configuration.MailFrom = resolveSender(configuration)

	return configuration, nil
}

func loadEnvString(environmentKey string, defaultValue string, destination *string) func() error {
	return func() error {
		environmentValue := strings.TrimSpace(os.Getenv(environmentKey))
		if environmentValue == "" {
			environmentValue = defaultValue
		}
		*destination = environmentValue
		return nil
	}
}

func loadEnvInt(environmentKey string, defaultValue int, destination *int) func() error {
	const invalidIntFormat = "invalid integer for %s: %v"
	const negativeIntFormat = "negative value for %s: %d"
	return func() error {
		environmentValue := strings.TrimSpace(os.Getenv(environmentKey))
		if environmentValue == "" {
			*destination = defaultValue
			return nil
		}
		parsedInteger, conversionError := strconv.Atoi(environmentValue)
		if conversionError != nil {
			return fmt.Errorf(invalidIntFormat, environmentKey, conversionError)
		}
		if parsedInteger < 0 {
			return fmt.Errorf(negativeIntFormat, environmentKey, parsedInteger)
		}
		*destination = parsedInteger
		return nil
	}
}

// resolveSender picks MAIL_FROM, then RESEND_FROM, then a provider default.
func resolveSender(configuration Config) string {
	for _, environmentKey := range []string{"MAIL_FROM", "RESEND_FROM"} {
		if candidate := strings.TrimSpace(os.Getenv(environmentKey)); candidate != "" {
			return candidate
		}
	}
	switch configuration.MailProvider {
	case ProviderResend:
		return defaultResendFrom
	case ProviderSMTP, ProviderDryRun:
		if configuration.SMTPUsername != "" {
			return configuration.SMTPUsername
		}
		return defaultSMTPFrom
	default:
		return ""
	}
}

// OperationTimeout bounds one outbound delivery attempt.
func (configuration Config) OperationTimeout() time.Duration {
	return time.Duration(configuration.OperationTimeoutSec) * time.Second
}

// ShutdownGrace bounds graceful HTTP shutdown.
func (configuration Config) ShutdownGrace() time.Duration {
	return time.Duration(configuration.ShutdownGraceSec) * time.Second
}

// MaxMultipartMemory is the in-memory threshold before multipart parts spill to disk.
func (configuration Config) MaxMultipartMemory() int64 {
	return int64(configuration.MaxMultipartMemoryMB) << 20
}

func parseCSV(value string) []string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	rawParts := strings.Split(trimmed, ",")
	var normalized []string
	for _, part := range rawParts {
		candidate := strings.TrimSpace(part)
		if candidate == "" {
			continue
		}
		normalized = append(normalized, candidate)
	}
	return normalized
}
