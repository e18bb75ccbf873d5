package service

import (
	"context"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/currency"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/errors"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/ebike-storefront/internal/repositories"
)

type PreferencesService interface {
	// Get returns the session's preferences with defaults filled in.
	Get(ctx context.Context, sessionID string) (*models.Preferences, error)
	Update(ctx context.Context, sessionID string, req *models.UpdatePreferencesRequest) (*models.Preferences, error)
	ChatIdentity(ctx context.Context, sessionID string) (*models.ChatCustomer, string, error)
	SaveChatIdentity(ctx context.Context, sessionID string, customer *models.ChatCustomer, chatSessionID string) error
}

type preferencesService struct {
	repo            repository.PreferencesRepository
	defaultCurrency currency.Code
}

// NewPreferencesService fails with a ConfigurationError when defaultCurrency
// is not a supported code.
func NewPreferencesService(repo repository.PreferencesRepository, defaultCurrency string) (PreferencesService, error) {
	code, err := currency.Parse(defaultCurrency)
	if err != nil {
		return nil, err
	}
	return &preferencesService{repo: repo, defaultCurrency: code}, nil
}

func (s *preferencesService) load(ctx context.Context, sessionID string) (*models.Preferences, error) {
	prefs, err := s.repo.Load(ctx, sessionID)
	if err != nil {
		return nil, errors.InternalError("Failed to load preferences").WithError(err)
	}
	return prefs, nil
}

func (s *preferencesService) save(ctx context.Context, sessionID string, prefs *models.Preferences) error {
	if err := s.repo.Save(ctx, sessionID, prefs); err != nil {
		return errors.InternalError("Failed to save preferences").WithError(err)
	}
	return nil
}

func (s *preferencesService) withDefaults(prefs *models.Preferences) *models.Preferences {
	out := *prefs
	if out.Language == "" {
		out.Language = models.LanguageVietnamese
	}
	if _, err := currency.Parse(out.Currency); err != nil {
		out.Currency = string(s.defaultCurrency)
	}
	return &out
}

func (s *preferencesService) Get(ctx context.Context, sessionID string) (*models.Preferences, error) {
	prefs, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.withDefaults(prefs), nil
}

func (s *preferencesService) Update(ctx context.Context, sessionID string, req *models.UpdatePreferencesRequest) (*models.Preferences, error) {

	prefs, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req.Language != nil {
		lang := models.Language(*req.Language)
		if lang != models.LanguageVietnamese && lang != models.LanguageEnglish {
			return nil, errors.ValidationError("Unsupported language").WithDetail(*req.Language)
		}
		prefs.Language = lang
	}

	if req.Currency != nil {
		code, err := currency.Parse(*req.Currency)
		if err != nil {
			return nil, errors.ValidationError("Unsupported currency").WithDetail(*req.Currency)
		}
		prefs.Currency = string(code)
	}

	if err := s.save(ctx, sessionID, prefs); err != nil {
		return nil, err
	}

	return s.withDefaults(prefs), nil
}

func (s *preferencesService) ChatIdentity(ctx context.Context, sessionID string) (*models.ChatCustomer, string, error) {
	prefs, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	return prefs.ChatCustomer, prefs.ChatSessionID, nil
}

func (s *preferencesService) SaveChatIdentity(ctx context.Context, sessionID string, customer *models.ChatCustomer, chatSessionID string) error {
	prefs, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	prefs.ChatCustomer = customer
	prefs.ChatSessionID = chatSessionID
	return s.save(ctx, sessionID, prefs)
}
