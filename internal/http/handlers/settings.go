package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"server/internal/domain"
)

type settingUpsertRequest struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Type     string `json:"type"`
	Category string `json:"category"`
}

// SettingsList returns all platform settings. Admin only.
func (a *App) SettingsList(w http.ResponseWriter, r *http.Request) {
	settings, err := a.Settings.List(r.Context())
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load settings")
		return
	}
	items := make([]map[string]string, 0, len(settings))
	for _, s := range settings {
		items = append(items, map[string]string{
			"key":      s.Key,
			"value":    s.Value,
			"type":     string(s.Type),
			"category": s.Category,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// SettingsUpsert creates or overwrites one setting. Admin only.
func (a *App) SettingsUpsert(w http.ResponseWriter, r *http.Request) {
	var req settingUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "key required")
		return
	}
	kind := domain.SettingType(req.Type)
	switch kind {
	case domain.SettingTypeString, domain.SettingTypeNumber, domain.SettingTypeBool, domain.SettingTypeJSON:
	case "":
		kind = domain.SettingTypeString
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown setting type")
		return
	}

	setting := &domain.Setting{
		Key:      strings.TrimSpace(req.Key),
		Value:    req.Value,
		Type:     kind,
		Category: req.Category,
	}
	if err := a.Settings.Upsert(r.Context(), setting); err != nil {
		a.Logger.Error().Err(err).Msg("setting upsert failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save setting")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"key": setting.Key, "value": setting.Value})
}
