package blackbox

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/marcus/atelier/internal/models"
)

// CompanyContext is the sample company description used by the default
// text and axes configurations.
const CompanyContext = "LafargeHolcim Maroc, un leader dans le secteur des matériaux de construction au Maroc, est une filiale du groupe international Holcim. L'entreprise se distingue par son engagement envers le développement durable et l'innovation dans ses produits et services."

// Config is the parameter set of one function. Exactly one Config is active
// in a modal at a time; its concrete type determines the function.
type Config interface {
	Function() Function
	// Request builds the JSON body for the endpoint. Criteria values
	// override the seeded fields so the body always reflects the record
	// at call time.
	Request(criteria *models.Criteria) any
	// Parse flattens a successful response into display text. ok is false
	// when the response lacks the expected field and the current content
	// should be left as it is.
	Parse(body []byte) (content string, ok bool, err error)
}

// Seeder is implemented by configs whose fields are derived from the
// criteria record whenever their function is selected.
type Seeder interface {
	Seed(criteria *models.Criteria)
}

// TextConfig parameterizes /generate-text.
type TextConfig struct {
	CompanyContext string   `json:"company_context" validate:"required"`
	TargetWords    []string `json:"target_words" validate:"required,min=1,dive,required"`
	Tokens         int      `json:"tokens" validate:"min=1"`
	Language       string   `json:"language" validate:"required"`
	IsOrder        bool     `json:"is_order"`
}

// DescriptionsConfig parameterizes /generate-descriptions.
type DescriptionsConfig struct {
	Language string   `json:"language" validate:"required"`
	Tokens   int      `json:"tokens" validate:"min=1"`
	Words    []string `json:"words"`
}

// AxesConfig parameterizes /generate-axes.
type AxesConfig struct {
	Context  string   `json:"context" validate:"required"`
	Count    int      `json:"count" validate:"min=1"`
	Language string   `json:"language" validate:"required"`
	ListHide []string `json:"list_hide"`
	Text     string   `json:"text"`
}

// SumLettersConfig parameterizes /sum-letters. Each position is a pair of
// numbers interpreted by the service.
type SumLettersConfig struct {
	Positions [][2]int `json:"positions" validate:"required,min=1"`
}

// TransformDictConfig parameterizes /transform-dict. It has no settings;
// the input dictionary is derived from the criteria record.
type TransformDictConfig struct{}

// DefaultConfig returns the sample configuration for fn, seeded from
// criteria where the function derives fields from it.
func DefaultConfig(fn Function, criteria *models.Criteria) (Config, error) {
	var cfg Config
	switch fn {
	case FunctionText:
		cfg = &TextConfig{
			CompanyContext: CompanyContext,
			TargetWords:    []string{"DES", "AU", "C'EST", "CAS"},
			Tokens:         100,
			Language:       "french",
			IsOrder:        true,
		}
	case FunctionDescriptions:
		cfg = &DescriptionsConfig{
			Language: "french",
			Tokens:   3,
			Words:    []string{},
		}
	case FunctionAxes:
		cfg = &AxesConfig{
			Context:  CompanyContext,
			Count:    4,
			Language: "french",
			ListHide: []string{"SERALN", "ESALNRA", "NRESALN", "ESARNL"},
		}
	case FunctionSumLetters:
		cfg = &SumLettersConfig{
			Positions: [][2]int{{1, 3}, {3, 4}, {1, 2}},
		}
	case FunctionTransformDict:
		cfg = &TransformDictConfig{}
	default:
		return nil, fmt.Errorf("unknown function %q", fn)
	}
	if s, ok := cfg.(Seeder); ok {
		s.Seed(criteria)
	}
	return cfg, nil
}

// CloneConfig returns a deep copy of cfg.
func CloneConfig(cfg Config) Config {
	switch c := cfg.(type) {
	case *TextConfig:
		out := *c
		out.TargetWords = append([]string(nil), c.TargetWords...)
		return &out
	case *DescriptionsConfig:
		out := *c
		out.Words = append([]string(nil), c.Words...)
		return &out
	case *AxesConfig:
		out := *c
		out.ListHide = append([]string(nil), c.ListHide...)
		return &out
	case *SumLettersConfig:
		out := *c
		out.Positions = append([][2]int(nil), c.Positions...)
		return &out
	case *TransformDictConfig:
		return &TransformDictConfig{}
	}
	return cfg
}

func (*TextConfig) Function() Function          { return FunctionText }
func (*DescriptionsConfig) Function() Function  { return FunctionDescriptions }
func (*AxesConfig) Function() Function          { return FunctionAxes }
func (*SumLettersConfig) Function() Function    { return FunctionSumLetters }
func (*TransformDictConfig) Function() Function { return FunctionTransformDict }

// Seed sets Words to the criteria values in order.
func (c *DescriptionsConfig) Seed(criteria *models.Criteria) {
	c.Words = criteria.Values()
}

// Seed sets Text to the first criteria value.
func (c *AxesConfig) Seed(criteria *models.Criteria) {
	c.Text = criteria.First()
}

func (c *TextConfig) Request(criteria *models.Criteria) any {
	return struct {
		TextConfig
		Criteria []string `json:"criteria"`
	}{*c, criteria.Values()}
}

func (c *DescriptionsConfig) Request(criteria *models.Criteria) any {
	body := *c
	body.Words = criteria.Values()
	return body
}

func (c *AxesConfig) Request(criteria *models.Criteria) any {
	body := *c
	body.Text = criteria.First()
	if body.ListHide == nil {
		body.ListHide = []string{}
	}
	return body
}

func (c *SumLettersConfig) Request(criteria *models.Criteria) any {
	return struct {
		Positions [][2]int `json:"positions"`
		Words     []string `json:"words"`
	}{c.Positions, criteria.Values()}
}

func (c *TransformDictConfig) Request(criteria *models.Criteria) any {
	return struct {
		InputDict *models.Criteria `json:"input_dict"`
	}{PrepareTransformDictInput(criteria)}
}

func (c *TextConfig) Parse(body []byte) (string, bool, error)         { return parseText(body) }
func (c *DescriptionsConfig) Parse(body []byte) (string, bool, error) { return parseDescriptions(body) }
func (c *AxesConfig) Parse(body []byte) (string, bool, error)         { return parseAxes(body) }
func (c *SumLettersConfig) Parse(body []byte) (string, bool, error)   { return parseSumLetters(body) }
func (c *TransformDictConfig) Parse(body []byte) (string, bool, error) {
	return FormatTransformDictResponse(body), true, nil
}

// ConfigError lists the invalid fields of a configuration.
type ConfigError struct {
	Function Function
	Problems []string
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s config: %s", e.Function, e.Problems[0])
	}
	return fmt.Sprintf("%s config: %d problems: %s", e.Function, len(e.Problems), strings.Join(e.Problems, "; "))
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks cfg's struct tags and returns a *ConfigError describing
// every failing field.
func Validate(cfg Config) error {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			return name
		})
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s config: %w", cfg.Function(), err)
	}
	ce := &ConfigError{Function: cfg.Function()}
	for _, fe := range verrs {
		ce.Problems = append(ce.Problems, describeFieldError(fe))
	}
	return ce
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
