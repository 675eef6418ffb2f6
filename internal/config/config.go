// Package config 医管チェッカーの設定
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	parser "github.com/Saki-tw/go-jp-ikan-parser"
)

// 出力形式
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Config アプリケーション設定
type Config struct {
	App    AppConfig    `yaml:"app"`
	HTTP   HTTPConfig   `yaml:"http"`
	Inputs InputsConfig `yaml:"inputs"`
	Output OutputConfig `yaml:"output"`
}

// Validate 全体の検証
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Inputs.Validate(); err != nil {
		return fmt.Errorf("inputs: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// AppConfig 共通設定
type AppConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// HTTPConfig ローカル Web 画面の設定
type HTTPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	OpenBrowser bool   `yaml:"open_browser"`
}

// Address 待ち受けアドレス
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MaxUploadBytes アップロード上限 (バイト)
func (c *HTTPConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Validate HTTP 設定の検証
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.MaxUploadMB, validation.Required, validation.Min(int64(1))),
	)
}

// InputConfig 入力ファイル 1 件の設定
type InputConfig struct {
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding"`
}

// Validate 文字コード名の検証 (空は既定値)
func (c *InputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Encoding, validation.By(knownEncoding)),
	)
}

// InputsConfig 4 入力の設定
type InputsConfig struct {
	MemoNotes      InputConfig `yaml:"memo_notes"`
	PatientMaster  InputConfig `yaml:"patient_master"`
	BilledPatients InputConfig `yaml:"billed_patients"`
	AllVisits      InputConfig `yaml:"all_visits"`
}

// ByRole ロールに対応する入力設定
func (c *InputsConfig) ByRole(r parser.Role) *InputConfig {
	switch r {
	case parser.RoleMemoNotes:
		return &c.MemoNotes
	case parser.RolePatientMaster:
		return &c.PatientMaster
	case parser.RoleBilledPatients:
		return &c.BilledPatients
	case parser.RoleAllVisits:
		return &c.AllVisits
	}
	return nil
}

// Validate 各入力の検証
func (c *InputsConfig) Validate() error {
	for _, r := range parser.Roles {
		if err := c.ByRole(r).Validate(); err != nil {
			return fmt.Errorf("%s: %w", r, err)
		}
	}
	return nil
}

// OutputConfig 出力設定
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Format  string `yaml:"format"`
	Preview int    `yaml:"preview"`
}

// Validate 出力設定の検証
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Format, validation.Required, validation.In(FormatCSV, FormatParquet)),
		validation.Field(&c.Preview, validation.Min(0)),
	)
}

func knownEncoding(value interface{}) error {
	name, _ := value.(string)
	if name == "" {
		return nil
	}
	if _, err := parser.LookupEncoding(name); err != nil {
		return errors.New("unsupported encoding")
	}
	return nil
}

// NewDefaultConfig 既定値 (電子カルテ出力は Shift_JIS、プレビュー 10 件)
func NewDefaultConfig() *Config {
	cfg := &Config{
		App: AppConfig{
			LogLevel: slog.LevelInfo,
		},
		HTTP: HTTPConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			MaxUploadMB: 50,
			OpenBrowser: true,
		},
		Output: OutputConfig{
			Dir:     ".",
			Format:  FormatCSV,
			Preview: 10,
		},
	}
	for _, r := range parser.Roles {
		cfg.Inputs.ByRole(r).Encoding = parser.DefaultEncoding(r)
	}
	return cfg
}
