package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/utils"
	"github.com/GTDGit/pdv_api/pkg/evoapi"
	"github.com/GTDGit/pdv_api/pkg/yampi"
)

// Setting keys.
const (
	SettingEvoURL          = "evoapi_url"
	SettingEvoKey          = "evoapi_key"
	SettingEvoInstance     = "evoapi_instance"
	SettingMessageTemplate = "whatsapp_mensagem"
	SettingMessagingActive = "whatsapp_ativo"
	SettingYampiAlias      = "yampi_alias"
	SettingYampiToken      = "yampi_token"
	SettingYampiSecret     = "yampi_secret"
	SettingSyncActive      = "yampi_sync_ativo"
	SettingSyncInterval    = "yampi_sync_intervalo"
)

const defaultMessageTemplate = "Olá {nome}! 🎫\n\nSegue seu ingresso #{codigo}.\n\nObrigado pela preferência!"

// DefaultSettings are seeded on start without overwriting existing values.
var DefaultSettings = []models.Setting{
	{Key: SettingEvoURL, Value: "", Description: "URL base da EvoAPI"},
	{Key: SettingEvoKey, Value: "", Description: "API Key da EvoAPI"},
	{Key: SettingEvoInstance, Value: "", Description: "Nome da instância do WhatsApp"},
	{Key: SettingMessageTemplate, Value: defaultMessageTemplate, Description: "Mensagem enviada com o ingresso"},
	{Key: SettingMessagingActive, Value: "1", Description: "Ativar envio automático no WhatsApp (1=sim, 0=não)"},
	{Key: SettingYampiAlias, Value: "", Description: "Alias da loja Yampi"},
	{Key: SettingYampiToken, Value: "", Description: "User-Token da API Yampi"},
	{Key: SettingYampiSecret, Value: "", Description: "User-Secret-Key da API Yampi"},
	{Key: SettingSyncActive, Value: "0", Description: "Ativar sincronização automática (1=sim, 0=não)"},
	{Key: SettingSyncInterval, Value: "60", Description: "Intervalo de sincronização em minutos"},
}

// SettingStore persists runtime settings.
type SettingStore interface {
	List(ctx context.Context) ([]models.Setting, error)
	SeedDefaults(ctx context.Context, defaults []models.Setting) error
	Update(ctx context.Context, key, value string) error
}

// MessagingSettings is the typed view of the messaging gateway settings.
type MessagingSettings struct {
	Gateway  evoapi.Config
	Template string
	Active   bool
}

// SyncSchedule tells the sync worker whether and how often to run.
type SyncSchedule struct {
	Active   bool
	Interval time.Duration
}

// SettingsService serves runtime configuration from an in-memory snapshot that
// is reloaded explicitly after every change.
type SettingsService struct {
	store SettingStore

	mu       sync.RWMutex
	values   map[string]string
	settings []models.Setting
}

// NewSettingsService constructs a SettingsService. Call Init before use.
func NewSettingsService(store SettingStore) *SettingsService {
	return &SettingsService{store: store, values: map[string]string{}}
}

// Init seeds defaults and loads the snapshot.
func (s *SettingsService) Init(ctx context.Context) error {
	if err := s.store.SeedDefaults(ctx, DefaultSettings); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return s.Refresh(ctx)
}

// Refresh reloads the snapshot from storage.
func (s *SettingsService) Refresh(ctx context.Context) error {
	list, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	values := make(map[string]string, len(list))
	for _, st := range list {
		values[st.Key] = st.Value
	}

	s.mu.Lock()
	s.values = values
	s.settings = list
	s.mu.Unlock()
	return nil
}

// List returns every setting.
func (s *SettingsService) List() []models.Setting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Setting, len(s.settings))
	copy(out, s.settings)
	return out
}

// Get returns a single value, "" when unset.
func (s *SettingsService) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Update changes one setting and refreshes the snapshot.
func (s *SettingsService) Update(ctx context.Context, key, value string) error {
	if key == "" {
		return utils.Validationf("key is required")
	}
	if err := validateSetting(key, value); err != nil {
		return err
	}
	if err := s.store.Update(ctx, key, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.NotFound("setting " + key)
		}
		return err
	}
	log.Info().Str("key", key).Msg("Setting updated")
	return s.Refresh(ctx)
}

func validateSetting(key, value string) error {
	switch key {
	case SettingMessagingActive, SettingSyncActive:
		if value != "0" && value != "1" {
			return utils.Validationf("%s must be 0 or 1", key)
		}
	case SettingSyncInterval:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return utils.Validationf("%s must be a positive number of minutes", key)
		}
	}
	return nil
}

// Messaging returns the messaging gateway settings.
func (s *SettingsService) Messaging() MessagingSettings {
	return MessagingSettings{
		Gateway: evoapi.Config{
			BaseURL:  s.Get(SettingEvoURL),
			APIKey:   s.Get(SettingEvoKey),
			Instance: s.Get(SettingEvoInstance),
		},
		Template: s.Get(SettingMessageTemplate),
		Active:   s.Get(SettingMessagingActive) == "1",
	}
}

// YampiCredentials returns the store credentials.
func (s *SettingsService) YampiCredentials() yampi.Credentials {
	return yampi.Credentials{
		Alias:  s.Get(SettingYampiAlias),
		Token:  s.Get(SettingYampiToken),
		Secret: s.Get(SettingYampiSecret),
	}
}

// SyncSchedule returns the periodic sync configuration. Invalid intervals fall
// back to one hour.
func (s *SettingsService) SyncSchedule() SyncSchedule {
	minutes, err := strconv.Atoi(s.Get(SettingSyncInterval))
	if err != nil || minutes < 1 {
		minutes = 60
	}
	return SyncSchedule{
		Active:   s.Get(SettingSyncActive) == "1",
		Interval: time.Duration(minutes) * time.Minute,
	}
}
