package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/domain"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/store"
)

// Service manages the settings document: store profile fields and the
// two-level payment-method catalog. Pricing inputs (tax, discount, service
// charge) are owned by the pricing service and are not mutated here.
type Service struct {
	Settings store.SettingsStore
	Bus      *events.Bus
	Logger   zerolog.Logger
}

// ProfileUpdate carries the optional profile fields of a PUT. Nil means
// leave the current value alone.
type ProfileUpdate struct {
	StoreName     *string
	Address       *string
	LogoURL       *string
	ReceiptFooter *string
	Locale        *string
}

// ChannelUpdate carries the mutable channel fields of a PATCH.
type ChannelUpdate struct {
	Name     *string
	IsActive *bool
	Logo     *string
}

// MethodUpdate carries the mutable method fields of a PATCH.
type MethodUpdate struct {
	IsActive *bool
	Logo     *string
}

// Get returns the settings document, creating the default on first access.
func (s *Service) Get(ctx context.Context) (domain.Settings, error) {
	settings, err := s.Settings.GetOrInit(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// UpdateProfile applies the non-nil profile fields and persists.
func (s *Service) UpdateProfile(ctx context.Context, upd ProfileUpdate) (domain.Settings, error) {
	if upd.StoreName != nil && strings.TrimSpace(*upd.StoreName) == "" {
		return domain.Settings{}, common.ValidationError("store name cannot be empty", map[string]any{"field": "store_name"})
	}
	return s.mutate(ctx, events.TopicSettingsUpdated, func(settings *domain.Settings) error {
		if upd.StoreName != nil {
			settings.StoreName = strings.TrimSpace(*upd.StoreName)
		}
		if upd.Address != nil {
			settings.Address = *upd.Address
		}
		if upd.LogoURL != nil {
			settings.LogoURL = *upd.LogoURL
		}
		if upd.ReceiptFooter != nil {
			settings.ReceiptFooter = *upd.ReceiptFooter
		}
		if upd.Locale != nil {
			settings.Locale = *upd.Locale
		}
		return nil
	})
}

// AddMethod appends a new payment method. Method names are unique across
// the catalog; a duplicate leaves it untouched and reports a conflict.
func (s *Service) AddMethod(ctx context.Context, name, logo string, active bool) (domain.Settings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Settings{}, common.ValidationError("method name is required", map[string]any{"field": "method"})
	}
	return s.mutate(ctx, events.TopicPaymentMethodsChanged, func(settings *domain.Settings) error {
		if _, ok := settings.FindMethod(name); ok {
			return common.ConflictError(fmt.Sprintf("payment method %q already exists", name))
		}
		settings.PaymentMethods = append(settings.PaymentMethods, domain.PaymentMethod{
			Method:   name,
			IsActive: active,
			Logo:     logo,
			Channels: []domain.Channel{},
		})
		return nil
	})
}

// UpdateMethod patches the active flag and logo of an existing method.
func (s *Service) UpdateMethod(ctx context.Context, name string, upd MethodUpdate) (domain.Settings, error) {
	return s.mutate(ctx, events.TopicPaymentMethodsChanged, func(settings *domain.Settings) error {
		method, ok := settings.FindMethod(name)
		if !ok {
			return common.NotFoundError(fmt.Sprintf("payment method %q not found", name))
		}
		if upd.IsActive != nil {
			method.IsActive = *upd.IsActive
		}
		if upd.Logo != nil {
			method.Logo = *upd.Logo
		}
		return nil
	})
}

// DeleteMethod removes a method and all of its channels.
func (s *Service) DeleteMethod(ctx context.Context, name string) (domain.Settings, error) {
	return s.mutate(ctx, events.TopicPaymentMethodsChanged, func(settings *domain.Settings) error {
		for i := range settings.PaymentMethods {
			if settings.PaymentMethods[i].Method == name {
				settings.PaymentMethods = append(settings.PaymentMethods[:i], settings.PaymentMethods[i+1:]...)
				return nil
			}
		}
		return common.NotFoundError(fmt.Sprintf("payment method %q not found", name))
	})
}

// AddChannel appends a channel under a method. Channel names are unique
// within their parent method only; two methods may both carry "BCA".
func (s *Service) AddChannel(ctx context.Context, methodName, channelName, logo string, active bool) (domain.Settings, error) {
	channelName = strings.TrimSpace(channelName)
	if channelName == "" {
		return domain.Settings{}, common.ValidationError("channel name is required", map[string]any{"field": "name"})
	}
	return s.mutate(ctx, events.TopicPaymentMethodsChanged, func(settings *domain.Settings) error {
		method, ok := settings.FindMethod(methodName)
		if !ok {
			return common.NotFoundError(fmt.Sprintf("payment method %q not found", methodName))
		}
		if _, ok := method.FindChannel(channelName); ok {
			return common.ConflictError(fmt.Sprintf("channel %q already exists under %q", channelName, methodName))
		}
		method.Channels = append(method.Channels, domain.Channel{
			Name:     channelName,
			IsActive: active,
			Logo:     logo,
		})
		return nil
	})
}

// UpdateChannel patches a channel; renaming checks uniqueness against the
// channel's siblings.
func (s *Service) UpdateChannel(ctx context.Context, methodName, channelName string, upd ChannelUpdate) (domain.Settings, error) {
	return s.mutate(ctx, events.TopicPaymentMethodsChanged, func(settings *domain.Settings) error {
		method, ok := settings.FindMethod(methodName)
		if !ok {
			return common.NotFoundError(fmt.Sprintf("payment method %q not found", methodName))
		}
		channel, ok := method.FindChannel(channelName)
		if !ok {
			return common.NotFoundError(fmt.Sprintf("channel %q not found under %q", channelName, methodName))
		}
		if upd.Name != nil {
			newName := strings.TrimSpace(*upd.Name)
			if newName == "" {
				return common.ValidationError("channel name cannot be empty", map[string]any{"field": "name"})
			}
			if newName != channelName {
				if _, ok := method.FindChannel(newName); ok {
					return common.ConflictError(fmt.Sprintf("channel %q already exists under %q", newName, methodName))
				}
				channel.Name = newName
			}
		}
		if upd.IsActive != nil {
			channel.IsActive = *upd.IsActive
		}
		if upd.Logo != nil {
			channel.Logo = *upd.Logo
		}
		return nil
	})
}

// DeleteChannel removes one channel from its parent method.
func (s *Service) DeleteChannel(ctx context.Context, methodName, channelName string) (domain.Settings, error) {
	return s.mutate(ctx, events.TopicPaymentMethodsChanged, func(settings *domain.Settings) error {
		method, ok := settings.FindMethod(methodName)
		if !ok {
			return common.NotFoundError(fmt.Sprintf("payment method %q not found", methodName))
		}
		for i := range method.Channels {
			if method.Channels[i].Name == channelName {
				method.Channels = append(method.Channels[:i], method.Channels[i+1:]...)
				return nil
			}
		}
		return common.NotFoundError(fmt.Sprintf("channel %q not found under %q", channelName, methodName))
	})
}

// mutate loads the document, applies fn, and persists only when fn
// succeeds, so a rejected mutation never leaves a partial write behind.
func (s *Service) mutate(ctx context.Context, topic string, fn func(*domain.Settings) error) (domain.Settings, error) {
	settings, err := s.Settings.GetOrInit(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if err := fn(&settings); err != nil {
		return domain.Settings{}, err
	}
	saved, err := s.Settings.Save(ctx, settings)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, topic, map[string]any{"settings_id": saved.ID}); err != nil {
			s.Logger.Error().Err(err).Str("topic", topic).Msg("emit event")
		}
	}
	return saved, nil
}
