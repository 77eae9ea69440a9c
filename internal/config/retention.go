package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Policies for events whose type is not in the known set.
const (
	// UnknownEventPolicyInvalid applies the event with the conservative
	// "invalid" status, treating an unknown kind as a churn signal.
	UnknownEventPolicyInvalid = "invalid"
	// UnknownEventPolicyIgnore acknowledges the event without applying it.
	UnknownEventPolicyIgnore = "ignore"
)

// RetentionConfig carries the retention message templates and the policy
// for unrecognized event kinds.
type RetentionConfig struct {
	UnknownEventPolicy string `mapstructure:"unknownEventPolicy"`
	Messages           struct {
		CancelRescue    string `mapstructure:"cancelRescue"`
		PaymentRecovery string `mapstructure:"paymentRecovery"`
		ExitSurvey      string `mapstructure:"exitSurvey"`
	} `mapstructure:"messages"`
}

func DefaultRetentionConfig() RetentionConfig {
	cfg := RetentionConfig{UnknownEventPolicy: UnknownEventPolicyInvalid}
	cfg.Messages.CancelRescue = "Hey there! 👋\n\nWe noticed you scheduled a cancellation. If we can help or offer a better plan, just reply and we'll take care of you. 💙"
	cfg.Messages.PaymentRecovery = "Hey there! 💳\n\nLooks like a payment didn't go through. You can update your billing to keep access active:\n\n🔗 https://whop.com/billing"
	cfg.Messages.ExitSurvey = "Sorry to see you go! 📝\n\nMind telling us why you left? It takes 30 seconds and really helps:\n\n🔗 https://churnguard.app/survey"
	return cfg
}

// RetentionConfigHolder hot-reloads retention.yml.
type RetentionConfigHolder struct {
	current atomic.Value // holds RetentionConfig
}

func NewRetentionConfigHolder() (*RetentionConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("retention")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/churnguard/config")
	v.AddConfigPath("/etc/churnguard")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CHURNGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultRetentionConfig()
	v.SetDefault("retention.unknownEventPolicy", defaults.UnknownEventPolicy)
	v.SetDefault("retention.messages.cancelRescue", defaults.Messages.CancelRescue)
	v.SetDefault("retention.messages.paymentRecovery", defaults.Messages.PaymentRecovery)
	v.SetDefault("retention.messages.exitSurvey", defaults.Messages.ExitSurvey)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg RetentionConfig
	if err := v.UnmarshalKey("retention", &cfg); err != nil {
		return nil, err
	}
	if err := validateRetentionConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RetentionConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		// Reloads fire after startup, once the global logger is installed.
		log := zap.L().Named("retention.config")
		var updated RetentionConfig
		if err := v.UnmarshalKey("retention", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateRetentionConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticRetentionConfigHolder wraps a fixed config, for tests.
func NewStaticRetentionConfigHolder(cfg RetentionConfig) *RetentionConfigHolder {
	holder := &RetentionConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *RetentionConfigHolder) Get() RetentionConfig {
	return h.current.Load().(RetentionConfig)
}

func validateRetentionConfig(cfg RetentionConfig) error {
	switch strings.ToLower(strings.TrimSpace(cfg.UnknownEventPolicy)) {
	case UnknownEventPolicyInvalid, UnknownEventPolicyIgnore:
	default:
		return errors.New("retention.unknownEventPolicy must be invalid or ignore")
	}
	if strings.TrimSpace(cfg.Messages.CancelRescue) == "" ||
		strings.TrimSpace(cfg.Messages.PaymentRecovery) == "" ||
		strings.TrimSpace(cfg.Messages.ExitSurvey) == "" {
		return errors.New("retention.messages cannot be empty")
	}
	return nil
}
