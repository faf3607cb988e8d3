// =============================================================================
// Grab Sheet Builder - Configuration Module
// =============================================================================
//
// This module loads the job configuration. The file is YAML with one mapping
// per named section, in the spirit of an INI file:
//
//   DEFAULT:
//     log_dir_path: /var/log/jobs
//     log_max_files: 7
//   GRAB_SHEET:
//     order_path: data/customer_orders.xlsx
//     stop_path: data/route_stops.xlsx
//     output_path: out/grab_sheet.xlsx
//
// RESOLUTION ORDER (later wins):
//   1. Built-in defaults
//   2. The DEFAULT section
//   3. The selected section (GRAB_SHEET unless told otherwise)
//   4. Environment variables prefixed GRABSHEET_ (e.g. GRABSHEET_OUTPUT_PATH)
//
// The result is validated before any input is read. Every failure here is a
// ConfigError.
//
// =============================================================================

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/grabsheet/internal/apperrors"
	"github.com/ginjaninja78/grabsheet/internal/csvparser"
)

const (
	// DefaultSection supplies fallback values for every other section.
	DefaultSection = "DEFAULT"

	// JobSection is the section read when none is named.
	JobSection = "GRAB_SHEET"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "GRABSHEET"
)

// =============================================================================
// JOB CONFIGURATION STRUCTURE
// =============================================================================

// Job holds everything one grab sheet run needs.
type Job struct {
	// =========================================================================
	// INPUT AND OUTPUT
	// =========================================================================

	// OrderPath is the customer order table (.xlsx, .xlsm or .csv).
	OrderPath string `yaml:"order_path" envconfig:"ORDER_PATH" validate:"required"`

	// StopPath is the route stop table (.xlsx, .xlsm or .csv).
	StopPath string `yaml:"stop_path" envconfig:"STOP_PATH" validate:"required"`

	// OutputPath is the workbook to write. It must end in .xlsx.
	OutputPath string `yaml:"output_path" envconfig:"OUTPUT_PATH" validate:"required,xlsxpath"`

	// OrdersSheet selects the worksheet of a workbook order input.
	// Default: the first sheet.
	OrdersSheet string `yaml:"orders_sheet" envconfig:"ORDERS_SHEET"`

	// StopsSheet selects the worksheet of a workbook stop input.
	// Default: the first sheet.
	StopsSheet string `yaml:"stops_sheet" envconfig:"STOPS_SHEET"`

	// CSVDelimiter is the field separator of CSV inputs.
	// Default: ","
	CSVDelimiter string `yaml:"csv_delimiter" envconfig:"CSV_DELIMITER" validate:"csvdelim"`

	// =========================================================================
	// JOIN SETTINGS
	// =========================================================================

	// DuplicateNames decides what a non-unique customer name does.
	// Valid values: "warn" (log and keep the fan-out), "reject" (fail).
	// Default: "warn"
	DuplicateNames string `yaml:"duplicate_names" envconfig:"DUPLICATE_NAMES" validate:"oneof=warn reject"`

	// =========================================================================
	// SHEET FORMATTING
	// =========================================================================

	// HeaderFontSize is the header font size. 0 keeps the default size.
	HeaderFontSize float64 `yaml:"header_font_size" envconfig:"HEADER_FONT_SIZE" validate:"gte=0,lte=409"`

	// HighlightColor is the hex fill of subtotal rows.
	// Default: "EBF1DE"
	HighlightColor string `yaml:"highlight_color" envconfig:"HIGHLIGHT_COLOR" validate:"rgbhex"`

	// HighlightMaxRow is the last row the subtotal highlight covers.
	// Default: 10000
	HighlightMaxRow int `yaml:"highlight_max_row" envconfig:"HIGHLIGHT_MAX_ROW" validate:"gte=1,lte=1048576"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogDirPath is the log directory. Empty logs to the console only.
	LogDirPath string `yaml:"log_dir_path" envconfig:"LOG_DIR_PATH"`

	// LogMaxFiles is the number of rotated log files kept.
	// Default: 7
	LogMaxFiles int `yaml:"log_max_files" envconfig:"LOG_MAX_FILES" validate:"gte=1"`

	// LogFileName is the base name of the log file and its directory.
	// Default: "grabSheet_job"
	LogFileName string `yaml:"log_file_name" envconfig:"LOG_FILE_NAME" validate:"required,excludesall=/\\"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "trace", "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`

	// Section is the section the values were read from.
	Section string `yaml:"-" ignored:"true"`
}

// Default returns a Job with every optional setting at its default.
func Default() Job {
	return Job{
		CSVDelimiter:    ",",
		DuplicateNames:  "warn",
		HighlightColor:  "EBF1DE",
		HighlightMaxRow: 10000,
		LogMaxFiles:     7,
		LogFileName:     "grabSheet_job",
		LogLevel:        "info",
		Section:         JobSection,
	}
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Load reads the job configuration.
//
// PARAMETERS:
//   - configPath: The YAML file. Empty means environment variables only.
//   - section: The section to read. Empty means GRAB_SHEET.
//
// RETURNS:
//   - The validated Job.
//   - A ConfigError if the file cannot be read or parsed, an environment
//     value is malformed, or a setting is missing or invalid.
func Load(configPath, section string) (Job, error) {
	if section == "" {
		section = JobSection
	}

	job := Default()
	job.Section = section

	if configPath != "" {
		if err := loadFromFile(configPath, section, &job); err != nil {
			return Job{}, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &job); err != nil {
		return Job{}, apperrors.Config("invalid environment override", err)
	}

	applyDefaults(&job)

	if err := Validate(job); err != nil {
		return Job{}, err
	}

	return job, nil
}

// loadFromFile merges DEFAULT and section into job.
func loadFromFile(configPath, section string, job *Job) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return apperrors.Config("failed to read config file", err).With("path", configPath)
	}

	var sections map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return apperrors.Config("failed to parse config file", err).With("path", configPath)
	}

	merged := make(map[string]interface{})
	for k, v := range sections[DefaultSection] {
		merged[k] = v
	}
	for k, v := range sections[section] {
		merged[k] = v
	}

	// Round-trip through YAML so the struct tags do the field mapping and
	// unknown keys are reported.
	out, err := yaml.Marshal(merged)
	if err != nil {
		return apperrors.Config("failed to merge config sections", err).With("path", configPath)
	}
	dec := yaml.NewDecoder(bytes.NewReader(out))
	dec.KnownFields(true)
	if err := dec.Decode(job); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Config("invalid config value", err).
			With("path", configPath).
			With("section", section)
	}

	return nil
}

// applyDefaults restores defaults for settings left empty by the file or
// the environment.
func applyDefaults(job *Job) {
	def := Default()
	if job.CSVDelimiter == "" {
		job.CSVDelimiter = def.CSVDelimiter
	}
	if job.DuplicateNames == "" {
		job.DuplicateNames = def.DuplicateNames
	}
	if job.HighlightColor == "" {
		job.HighlightColor = def.HighlightColor
	}
	if job.HighlightMaxRow == 0 {
		job.HighlightMaxRow = def.HighlightMaxRow
	}
	if job.LogMaxFiles == 0 {
		job.LogMaxFiles = def.LogMaxFiles
	}
	if job.LogFileName == "" {
		job.LogFileName = def.LogFileName
	}
	if job.LogLevel == "" {
		job.LogLevel = def.LogLevel
	}
	job.DuplicateNames = strings.ToLower(job.DuplicateNames)
	job.LogLevel = strings.ToLower(job.LogLevel)
}

// =============================================================================
// VALIDATION
// =============================================================================

var rgbHex = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

// newValidator returns a validator that reports YAML key names.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("xlsxpath", func(fl validator.FieldLevel) bool {
		return strings.EqualFold(filepath.Ext(fl.Field().String()), ".xlsx")
	})
	v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return rgbHex.MatchString(fl.Field().String())
	})
	v.RegisterValidation("csvdelim", func(fl validator.FieldLevel) bool {
		_, err := csvparser.Delimiter(fl.Field().String())
		return err == nil
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks a Job and returns a ConfigError listing every problem.
func Validate(job Job) error {
	err := newValidator().Struct(job)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Config("invalid configuration", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, formatFieldError(fe))
	}
	sort.Strings(problems)

	return apperrors.Config("invalid configuration", err).
		With("section", job.Section).
		With("problems", strings.Join(problems, "; "))
}

// formatFieldError renders one validation failure with its YAML key.
func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "xlsxpath":
		return fmt.Sprintf("%s must be an .xlsx path", field)
	case "rgbhex":
		return fmt.Sprintf("%s must be a 6 digit hex colour", field)
	case "csvdelim":
		return fmt.Sprintf("%s must be a single character", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "excludesall":
		return fmt.Sprintf("%s must not contain path separators", field)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
