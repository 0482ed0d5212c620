package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/reportql/internal/schema"
	"github.com/leapstack-labs/reportql/pkg/adapter"
	"github.com/leapstack-labs/reportql/pkg/core"
)

// Generator compiles canonical query configurations into a single SELECT for
// the target dialect. It performs no optimization; planning is left entirely
// to the database.
type Generator struct {
	dialect *adapter.Dialect
	catalog *schema.Catalog
}

// NewGenerator creates a generator for the given dialect and model catalog.
func NewGenerator(dialect *adapter.Dialect, catalog *schema.Catalog) *Generator {
	return &Generator{dialect: dialect, catalog: catalog}
}

// Statement is a generated query plus its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Analytics compiles the aggregate path: metrics with aggregation functions,
// dimensions with optional time buckets, derived expressions, structured
// predicates as bound parameters, GROUP BY over the dimension expressions.
func (g *Generator) Analytics(cfg core.QueryConfig) (Statement, error) {
	if len(cfg.Models) == 0 {
		return Statement{}, fmt.Errorf("query has no models")
	}
	aliases := modelAliases(cfg.Models)

	var selects []string
	var groups []string

	for _, dim := range cfg.Dimensions {
		expr, err := g.columnExpr(aliases, dim.Model, dim.Field)
		if err != nil {
			return Statement{}, err
		}
		if dim.Bucket != "" {
			expr = g.dialect.DateTrunc(dim.Bucket, expr)
		}
		selects = append(selects, expr+" AS "+g.dialect.QuoteIdent(dim.Alias))
		groups = append(groups, expr)
	}

	for _, d := range cfg.Derived {
		expr, err := g.renderExpr(d.ExpressionAST, aliases)
		if err != nil {
			return Statement{}, fmt.Errorf("derived field %s: %w", d.ID, err)
		}
		selects = append(selects, expr+" AS "+g.dialect.QuoteIdent(d.Alias))
		groups = append(groups, expr)
	}

	for _, m := range cfg.Metrics {
		expr, err := g.columnExpr(aliases, m.Model, m.Field)
		if err != nil {
			return Statement{}, err
		}
		selects = append(selects, aggregate(m.Aggregation, expr)+" AS "+g.dialect.QuoteIdent(m.Alias))
	}

	if len(selects) == 0 {
		return Statement{}, fmt.Errorf("query selects no columns")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	if err := g.writeFrom(&sb, cfg.Models, cfg.Joins, aliases); err != nil {
		return Statement{}, err
	}

	args, err := g.writeWhere(&sb, cfg.Filters, aliases)
	if err != nil {
		return Statement{}, err
	}

	if len(groups) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groups, ", "))
	}
	g.writeOrder(&sb, cfg.Order)
	g.writeLimit(&sb, cfg.Limit)

	return Statement{SQL: sb.String(), Args: args}, nil
}

// Preview compiles the row-level path: plain columns, derived expressions,
// and pre-compiled inline WHERE clauses.
func (g *Generator) Preview(req core.PreviewRequest) (Statement, error) {
	if len(req.Models) == 0 {
		return Statement{}, fmt.Errorf("preview has no models")
	}
	aliases := modelAliases(req.Models)

	var selects []string
	for _, col := range req.Columns {
		expr, err := g.columnExpr(aliases, col.Model, col.Field)
		if err != nil {
			return Statement{}, err
		}
		alias := col.Alias
		if alias == "" {
			alias = col.Field
		}
		selects = append(selects, expr+" AS "+g.dialect.QuoteIdent(alias))
	}
	for _, d := range req.Derived {
		expr, err := g.renderExpr(d.ExpressionAST, aliases)
		if err != nil {
			return Statement{}, fmt.Errorf("derived field %s: %w", d.ID, err)
		}
		selects = append(selects, expr+" AS "+g.dialect.QuoteIdent(d.Alias))
	}
	if len(selects) == 0 {
		return Statement{}, fmt.Errorf("preview selects no columns")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	if err := g.writeFrom(&sb, req.Models, req.Joins, aliases); err != nil {
		return Statement{}, err
	}
	if len(req.Where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(req.Where, " AND "))
	}
	g.writeOrder(&sb, req.Order)
	g.writeLimit(&sb, req.Limit)

	return Statement{SQL: sb.String()}, nil
}

// modelAliases assigns positional table aliases in model-list order, matching
// the aliases the filter compiler hands out.
func modelAliases(models []string) map[string]string {
	out := make(map[string]string, len(models))
	for i, id := range models {
		out[id] = fmt.Sprintf("t%d", i)
	}
	return out
}

func (g *Generator) writeFrom(sb *strings.Builder, models []string, joins []core.JoinCondition, aliases map[string]string) error {
	root, ok := g.catalog.Model(models[0])
	if !ok {
		return fmt.Errorf("unknown model %s", models[0])
	}
	sb.WriteString(" FROM ")
	sb.WriteString(g.dialect.QuoteIdent(root.TableName()))
	sb.WriteString(" AS ")
	sb.WriteString(g.dialect.QuoteIdent(aliases[models[0]]))

	for _, join := range joins {
		// Joins referencing deselected models are dropped rather than failing
		// the whole query; the graph analyzer reports them separately.
		leftAlias, leftOK := aliases[join.LeftModel]
		rightAlias, rightOK := aliases[join.RightModel]
		if !leftOK || !rightOK {
			continue
		}
		if join.Kind == core.JoinFull && !g.dialect.SupportsFullJoin {
			return fmt.Errorf("join %s-%s: %s does not support FULL OUTER JOIN", join.LeftModel, join.RightModel, g.dialect.Name)
		}
		right, ok := g.catalog.Model(join.RightModel)
		if !ok {
			return fmt.Errorf("unknown model %s", join.RightModel)
		}
		fmt.Fprintf(sb, " %s %s AS %s ON %s.%s = %s.%s",
			join.Kind.SQL(),
			g.dialect.QuoteIdent(right.TableName()),
			g.dialect.QuoteIdent(rightAlias),
			g.dialect.QuoteIdent(leftAlias), g.dialect.QuoteIdent(g.columnName(join.LeftModel, join.LeftField)),
			g.dialect.QuoteIdent(rightAlias), g.dialect.QuoteIdent(g.columnName(join.RightModel, join.RightField)),
		)
	}
	return nil
}

func (g *Generator) writeWhere(sb *strings.Builder, predicates []core.AnalyticsPredicate, aliases map[string]string) ([]any, error) {
	if len(predicates) == 0 {
		return nil, nil
	}
	var clauses []string
	var args []any
	for _, p := range predicates {
		expr, err := g.columnExpr(aliases, p.Model, p.Field)
		if err != nil {
			return nil, err
		}
		symbol, ok := p.Operator.ComparisonSymbol()
		if !ok {
			return nil, fmt.Errorf("predicate on %s.%s: operator %s has no comparison symbol", p.Model, p.Field, p.Operator)
		}
		arg, err := predicateArg(p)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf("%s %s %s", expr, symbol, g.dialect.Placeholder(len(args))))
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(clauses, " AND "))
	return args, nil
}

func (g *Generator) writeOrder(sb *strings.Builder, order []core.OrderBy) {
	if len(order) == 0 {
		return
	}
	var terms []string
	for _, o := range order {
		dir := "ASC"
		if o.Direction == core.SortDesc {
			dir = "DESC"
		}
		terms = append(terms, g.dialect.QuoteIdent(o.Alias)+" "+dir)
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(terms, ", "))
}

func (g *Generator) writeLimit(sb *strings.Builder, limit int) {
	if limit > 0 {
		fmt.Fprintf(sb, " LIMIT %d", limit)
	}
}

// columnExpr resolves model.field to its quoted alias.column form.
func (g *Generator) columnExpr(aliases map[string]string, modelID, fieldID string) (string, error) {
	alias, ok := aliases[modelID]
	if !ok {
		return "", fmt.Errorf("model %s is not part of the query", modelID)
	}
	return g.dialect.QuoteIdent(alias) + "." + g.dialect.QuoteIdent(g.columnName(modelID, fieldID)), nil
}

// columnName maps a field ID to its backing column, falling back to the ID
// when the model or field is not in the catalog.
func (g *Generator) columnName(modelID, fieldID string) string {
	model, ok := g.catalog.Model(modelID)
	if !ok {
		return fieldID
	}
	field, ok := model.FieldByID(fieldID)
	if !ok {
		return fieldID
	}
	return field.ColumnName()
}

func aggregate(agg core.Aggregation, expr string) string {
	switch agg {
	case core.AggCountDistinct:
		return "COUNT(DISTINCT " + expr + ")"
	case core.AggCount:
		return "COUNT(" + expr + ")"
	case core.AggSum, core.AggAvg, core.AggMin, core.AggMax:
		return strings.ToUpper(string(agg)) + "(" + expr + ")"
	default:
		return "COUNT(" + expr + ")"
	}
}

// predicateArg coerces the predicate literal into a driver-friendly value.
func predicateArg(p core.AnalyticsPredicate) (any, error) {
	switch p.Kind {
	case core.ValueNumber:
		n, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("predicate on %s.%s: %q is not a number", p.Model, p.Field, p.Value)
		}
		return n, nil
	case core.ValueBoolean:
		switch p.Value {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("predicate on %s.%s: %q is not a boolean", p.Model, p.Field, p.Value)
	default:
		return p.Value, nil
	}
}

// renderExpr turns a parsed derived-field tree into dialect SQL, resolving
// field references through the model alias map.
func (g *Generator) renderExpr(node core.ExprNode, aliases map[string]string) (string, error) {
	switch n := node.(type) {
	case *core.FieldRef:
		return g.columnExpr(aliases, n.Model, n.Field)
	case *core.NumberLit:
		return n.Value, nil
	case *core.StringLit:
		return "'" + strings.ReplaceAll(n.Value, "'", "''") + "'", nil
	case *core.BinaryExpr:
		left, err := g.renderExpr(n.Left, aliases)
		if err != nil {
			return "", err
		}
		right, err := g.renderExpr(n.Right, aliases)
		if err != nil {
			return "", err
		}
		return left + " " + n.Op + " " + right, nil
	case *core.UnaryExpr:
		operand, err := g.renderExpr(n.Expr, aliases)
		if err != nil {
			return "", err
		}
		return n.Op + operand, nil
	case *core.ParenExpr:
		inner, err := g.renderExpr(n.Expr, aliases)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case *core.FuncCall:
		var parts []string
		for _, arg := range n.Args {
			rendered, err := g.renderExpr(arg, aliases)
			if err != nil {
				return "", err
			}
			parts = append(parts, rendered)
		}
		return n.Name + "(" + strings.Join(parts, ", ") + ")", nil
	case nil:
		return "", fmt.Errorf("expression tree is empty")
	default:
		return "", fmt.Errorf("unsupported expression node %T", node)
	}
}
