package security

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/sqlchat/assets"
	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/pkg/filesystem"
	"github.com/doeshing/sqlchat/internal/ports"
)

// Guardrail implements the SQLGuard port.
type Guardrail struct {
	patterns []compiledPattern
	source   string
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule DangerPattern
}

// DangerPattern describes a regex-based guardrail rule.
type DangerPattern struct {
	Pattern string `yaml:"pattern"`
	Level   string `yaml:"level"`
	Message string `yaml:"message"`
	Action  string `yaml:"action"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules struct {
		DangerPatterns []DangerPattern `yaml:"danger_patterns"`
	} `yaml:"rules"`
}

// NewGuardrail loads guardrail rules from disk, or the embedded defaults when
// path is empty or missing.
func NewGuardrail(path string) (*Guardrail, error) {
	rules, source, err := loadRules(path)
	if err != nil {
		return nil, err
	}

	compiled := make([]compiledPattern, 0, len(rules.Rules.DangerPatterns))
	for _, pattern := range rules.Rules.DangerPatterns {
		re, err := regexp.Compile(pattern.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile guardrail pattern %q: %w", pattern.Pattern, err)
		}
		compiled = append(compiled, compiledPattern{re: re, rule: pattern})
	}

	return &Guardrail{patterns: compiled, source: source}, nil
}

// Evaluate implements ports.SQLGuard.
func (g *Guardrail) Evaluate(query string) (domain.RiskAssessment, error) {
	if g == nil {
		return domain.RiskAssessment{}, errors.New("guardrail nil")
	}
	query = stripComments(query)
	assessment := domain.RiskAssessment{
		Level:  domain.RiskSafe,
		Action: domain.ActionAllow,
	}
	for _, pattern := range g.patterns {
		if !pattern.re.MatchString(query) {
			continue
		}
		ruleLevel := parseRiskLevel(pattern.rule.Level)
		if moreSevere(ruleLevel, assessment.Level) {
			assessment.Level = ruleLevel
		}
		if action := parseAction(pattern.rule.Action, ruleLevel); actionRank(action) > actionRank(assessment.Action) {
			assessment.Action = action
		}
		assessment.Reasons = append(assessment.Reasons, pattern.rule.Message)
		assessment.MatchedRules = append(assessment.MatchedRules, pattern.rule.Pattern)
	}
	return assessment, nil
}

// Source reports where the rules came from.
func (g *Guardrail) Source() string {
	return g.source
}

// Rules returns the number of loaded rules.
func (g *Guardrail) Rules() int {
	return len(g.patterns)
}

var (
	lineComment  = regexp.MustCompile(`--[^\n]*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// stripComments removes SQL comments and a trailing semicolon so rules see
// only the statement text.
func stripComments(query string) string {
	query = blockComment.ReplaceAllString(query, " ")
	query = lineComment.ReplaceAllString(query, " ")
	query = strings.TrimSpace(query)
	return strings.TrimSpace(strings.TrimSuffix(query, ";"))
}

func loadRules(path string) (RulesFile, string, error) {
	var rules RulesFile
	path = filesystem.ExpandPath(path)
	data, err := os.ReadFile(path)
	source := path
	if path == "" || err != nil {
		data = assets.DefaultGuardrailYAML
		source = "embedded"
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, "", fmt.Errorf("parse guardrail rules %s: %w", source, err)
	}
	if len(rules.Rules.DangerPatterns) == 0 {
		rules.Rules.DangerPatterns = defaultPatterns()
		source = "builtin"
	}
	return rules, source, nil
}

func parseRiskLevel(value string) domain.RiskLevel {
	switch strings.ToLower(value) {
	case "low":
		return domain.RiskLow
	case "medium":
		return domain.RiskMedium
	case "high":
		return domain.RiskHigh
	case "critical":
		return domain.RiskCritical
	default:
		return domain.RiskSafe
	}
}

func parseAction(value string, fallback domain.RiskLevel) domain.GuardrailAction {
	switch strings.ToLower(value) {
	case "allow":
		return domain.ActionAllow
	case "warn":
		return domain.ActionWarn
	case "block":
		return domain.ActionBlock
	default:
		if fallback == domain.RiskSafe {
			return domain.ActionAllow
		}
		if moreSevere(fallback, domain.RiskMedium) {
			return domain.ActionBlock
		}
		return domain.ActionWarn
	}
}

func moreSevere(next domain.RiskLevel, current domain.RiskLevel) bool {
	order := map[domain.RiskLevel]int{
		domain.RiskSafe:     0,
		domain.RiskLow:      1,
		domain.RiskMedium:   2,
		domain.RiskHigh:     3,
		domain.RiskCritical: 4,
	}
	return order[next] > order[current]
}

func actionRank(a domain.GuardrailAction) int {
	switch a {
	case domain.ActionBlock:
		return 2
	case domain.ActionWarn:
		return 1
	default:
		return 0
	}
}

func defaultPatterns() []DangerPattern {
	return []DangerPattern{
		{Pattern: `(?i)^\s*(insert|update|delete|merge)\b`, Level: "critical", Message: "Data modification is not allowed", Action: "block"},
		{Pattern: `(?i)^\s*(drop|create|alter|truncate)\b`, Level: "critical", Message: "Schema changes are not allowed", Action: "block"},
		{Pattern: `;\s*\S`, Level: "high", Message: "Multiple statements in one query", Action: "block"},
	}
}

var _ ports.SQLGuard = (*Guardrail)(nil)
