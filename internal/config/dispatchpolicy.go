package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DispatchPolicy tunes partner auto-assignment. Operations adjusts it per
// city without redeploying, so it lives in a mounted file, not env vars.
type DispatchPolicy struct {
	// MaxOpenPickups caps how many open bookings a partner can hold before
	// dispatch stops offering them new ones. Zero means no cap.
	MaxOpenPickups int64 `mapstructure:"maxOpenPickups"`
}

func DefaultDispatchPolicy() DispatchPolicy {
	return DispatchPolicy{
		MaxOpenPickups: 5,
	}
}

type DispatchPolicyHolder struct {
	current atomic.Value // holds DispatchPolicy
}

// StaticDispatchPolicy wraps a fixed policy with no file backing.
func StaticDispatchPolicy(policy DispatchPolicy) *DispatchPolicyHolder {
	holder := &DispatchPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func NewDispatchPolicyHolder() (*DispatchPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("dispatch")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/scrapline/config") // Volume-mounted config
	v.AddConfigPath("/etc/scrapline")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("SCRAPLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// if config file not found, use defaults
		defaults := DefaultDispatchPolicy()
		v.SetDefault("dispatch.maxOpenPickups", defaults.MaxOpenPickups)
	}

	var policy DispatchPolicy
	if err := v.UnmarshalKey("dispatch", &policy); err != nil {
		return nil, err
	}
	if err := validateDispatchPolicy(policy); err != nil {
		return nil, err
	}

	holder := &DispatchPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DispatchPolicy
		if err := v.UnmarshalKey("dispatch", &updated); err != nil {
			log.Printf("[dispatch-policy] reload failed: %v", err)
			return
		}
		if err := validateDispatchPolicy(updated); err != nil {
			log.Printf("[dispatch-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[dispatch-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *DispatchPolicyHolder) Get() DispatchPolicy {
	return h.current.Load().(DispatchPolicy)
}

func validateDispatchPolicy(policy DispatchPolicy) error {
	if policy.MaxOpenPickups < 0 {
		return errors.New("dispatch.maxOpenPickups cannot be negative")
	}
	return nil
}
