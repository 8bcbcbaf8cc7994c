package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/char5742/mouse-filter/internal/config"
	"github.com/char5742/mouse-filter/internal/features"
	"github.com/char5742/mouse-filter/internal/filter"
)

// ルートの設定
func (s *Server) setupRoutes(router *http.ServeMux) {
	// ステータスページ
	router.HandleFunc("GET /{$}", s.handleIndex)

	// フィルタパラメータのエンドポイント
	router.HandleFunc("GET /api/filter", s.handleGetFilter)
	router.HandleFunc("PUT /api/filter", s.handleUpdateFilter)

	// 設定関連のエンドポイント
	router.HandleFunc("GET /api/config", s.handleGetConfig)
	router.HandleFunc("PUT /api/config", s.handleUpdateConfig)
	router.HandleFunc("POST /api/config/save", s.handleSaveConfig)

	// デバイス関連のエンドポイント
	router.HandleFunc("GET /api/devices", s.handleGetDevices)
	router.HandleFunc("PUT /api/devices/preferred", s.handleSetPreferredDevice)

	// サービス関連のエンドポイント
	router.HandleFunc("POST /api/service/start", s.handleStartService)
	router.HandleFunc("POST /api/service/stop", s.handleStopService)
	router.HandleFunc("GET /api/service/status", s.handleServiceStatus)

	// ヘルスチェック用エンドポイント
	router.HandleFunc("GET /api/health", s.handleHealthCheck)
}

// フィルタパラメータ取得ハンドラ
func (s *Server) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Service().Engine().Parameters())
}

// フィルタパラメータ更新ハンドラ
// 指定されたフィールドだけを更新する。範囲外の値は拒否され、
// 既存の値はそのまま保持される
func (s *Server) handleUpdateFilter(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Active            *bool `json:"active"`
		SmoothingFactor   *int  `json:"smoothing_factor"`
		ResponseSpeed     *int  `json:"response_speed"`
		FilteringStrength *int  `json:"filtering_strength"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	engine := s.Service().Engine()

	if request.SmoothingFactor != nil {
		if err := engine.SetSmoothingFactor(*request.SmoothingFactor); err != nil {
			writeInvalidParameter(w, "smoothing_factor", *request.SmoothingFactor, err)
			return
		}
	}
	if request.ResponseSpeed != nil {
		if err := engine.SetResponseSpeed(*request.ResponseSpeed); err != nil {
			writeInvalidParameter(w, "response_speed", *request.ResponseSpeed, err)
			return
		}
	}
	if request.FilteringStrength != nil {
		if err := engine.SetFilteringStrength(*request.FilteringStrength); err != nil {
			writeInvalidParameter(w, "filtering_strength", *request.FilteringStrength, err)
			return
		}
	}
	if request.Active != nil {
		engine.SetActive(*request.Active)
	}

	// 保存用の設定にも反映する
	// 共有中の設定は読み手がいるため、コピーしてから差し替える
	params := engine.Parameters()
	cfg := *s.GetConfig()
	cfg.Filter = config.FilterConfig{
		Active:            params.Active,
		SmoothingFactor:   params.SmoothingFactor,
		ResponseSpeed:     params.ResponseSpeed,
		FilteringStrength: params.FilteringStrength,
	}
	s.UpdateConfig(&cfg)

	writeJSON(w, http.StatusOK, params)
}

// writeInvalidParameter は範囲外パラメータのエラーレスポンスを書き込む
func writeInvalidParameter(w http.ResponseWriter, name string, value int, err error) {
	if errors.Is(err, filter.ErrInvalidParameter) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("%s が範囲外です: %d (0-100)", name, value))
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// 設定取得ハンドラ
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.GetConfig())
}

// 設定更新ハンドラ
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var newConfig config.Config

	if err := json.NewDecoder(r.Body).Decode(&newConfig); err != nil {
		writeError(w, http.StatusBadRequest, "設定の解析に失敗しました")
		return
	}
	if err := newConfig.Filter.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.UpdateConfig(&newConfig)
	s.Service().UpdateConfig(&newConfig)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// 設定保存ハンドラ
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var saveRequest struct {
		Path string `json:"path"`
	}

	if err := json.NewDecoder(r.Body).Decode(&saveRequest); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	configPath := saveRequest.Path
	if configPath == "" {
		// デフォルトパスを使用
		userConfigDir, err := config.GetDefaultConfigDir()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "デフォルト設定ディレクトリの取得に失敗しました")
			return
		}
		configPath = filepath.Join(userConfigDir, "config.toml")
	}

	if err := config.SaveConfig(configPath, s.GetConfig()); err != nil {
		writeError(w, http.StatusInternalServerError, "設定の保存に失敗しました: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"path":   configPath,
	})
}

// デバイス一覧取得ハンドラ
func (s *Server) handleGetDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := features.ScanDevices()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "デバイス一覧の取得に失敗しました: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, devices)
}

// 優先デバイス設定ハンドラ
func (s *Server) handleSetPreferredDevice(w http.ResponseWriter, r *http.Request) {
	var request struct {
		MouseDevice string `json:"mouse_device"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストの解析に失敗しました")
		return
	}

	// 共有中の設定は読み手がいるため、コピーしてから差し替える
	cfg := *s.GetConfig()
	cfg.DevicePrefs.PreferredMouseDevice = request.MouseDevice
	s.UpdateConfig(&cfg)

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// サービス起動ハンドラ
func (s *Server) handleStartService(w http.ResponseWriter, r *http.Request) {
	service := s.Service()

	if service.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already_running"})
		return
	}

	if err := service.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("サービスの起動に失敗しました: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// サービス停止ハンドラ
func (s *Server) handleStopService(w http.ResponseWriter, r *http.Request) {
	service := s.Service()

	if !service.IsRunning() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "not_running"})
		return
	}

	if err := service.Stop(); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("サービスの停止に失敗しました: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// サービス状態取得ハンドラ
func (s *Server) handleServiceStatus(w http.ResponseWriter, r *http.Request) {
	status := "stopped"
	if s.Service().IsRunning() {
		status = "running"
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// ヘルスチェックハンドラ
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ステータスページハンドラ
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

const indexHTML = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>Mouse Filter</title>
</head>
<body>
<h1>Mouse Filter</h1>
<p>サービス状態: <span id="status">-</span></p>
<pre id="params"></pre>
<script>
fetch('/api/service/status').then(r => r.json()).then(d => {
  document.getElementById('status').textContent = d.status;
});
fetch('/api/filter').then(r => r.json()).then(d => {
  document.getElementById('params').textContent = JSON.stringify(d, null, 2);
});
</script>
</body>
</html>
`
