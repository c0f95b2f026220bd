package compile

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cast"

	"github.com/gitbasheer/radmonitor-sub001/formula"
	"github.com/gitbasheer/radmonitor-sub001/functions"
	"github.com/gitbasheer/radmonitor-sub001/types"
)

// Options bound the queries the compiler may produce.
type Options struct {
	// MaxLookback is the largest time shift a formula may request.
	MaxLookback time.Duration
	// MaxNodes is the ceiling on compiled aggregation descriptors.
	MaxNodes int
	// TimeField is the event timestamp field of the index pattern.
	TimeField string
	// Interval is the bucket width of the top-level time series.
	Interval string
}

// DefaultOptions returns the standard compiler limits.
func DefaultOptions() Options {
	return Options{
		MaxLookback: DefaultMaxLookback,
		MaxNodes:    50,
		TimeField:   "@timestamp",
		Interval:    "1h",
	}
}

// seriesBucketID is the fixed identifier of the top-level time bucket.
const seriesBucketID = "series"

// Compiler lowers validated ASTs into aggregation-query trees. It is
// stateless apart from an invocation counter and safe for concurrent
// use.
type Compiler struct {
	opts        Options
	invocations atomic.Int64
}

// New creates a compiler with the given options, filling zero values
// from the defaults.
func New(opts Options) *Compiler {
	defaults := DefaultOptions()
	if opts.MaxLookback <= 0 {
		opts.MaxLookback = defaults.MaxLookback
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = defaults.MaxNodes
	}
	if opts.TimeField == "" {
		opts.TimeField = defaults.TimeField
	}
	if opts.Interval == "" {
		opts.Interval = defaults.Interval
	}
	return &Compiler{opts: opts}
}

// Invocations returns how many times Compile has run. The compilation
// cache's idempotence tests observe this counter.
func (c *Compiler) Invocations() int64 {
	return c.invocations.Load()
}

// Compile lowers a validated AST into the aggregation-query tree. The
// compiler trusts the validator's arity and field checks; it defends
// only against compile-time-only failures such as division by a
// literal zero or an out-of-window time shift.
//
// Repeated compilation of the same formula and context yields
// byte-identical query documents: every generated aggregation gets a
// deterministic identifier derived from its position in the AST.
func (c *Compiler) Compile(root formula.Node, ctx types.CompilationContext) (*Query, []*Error) {
	c.invocations.Add(1)

	folded, foldErr := foldConstants(root)
	if foldErr != nil {
		return nil, []*Error{foldErr}
	}

	bucket := &Query{
		ID:   seriesBucketID,
		Kind: KindBucket,
		Params: map[string]interface{}{
			"type":           "date_histogram",
			"field":          c.opts.TimeField,
			"fixed_interval": c.opts.Interval,
		},
	}

	if lit, ok := folded.(*formula.Literal); ok {
		// The whole formula folded to a constant.
		bucket.Children = append(bucket.Children, &Query{
			ID:   pathID([]int{0}),
			Kind: KindMetric,
			Params: map[string]interface{}{
				"type":  "static_value",
				"value": literalValue(lit),
			},
		})
		return bucket, nil
	}

	lw := &lowerer{compiler: c, ctx: ctx, bucket: bucket}
	op := lw.lowerExpr(folded, []int{0})
	if len(lw.errs) > 0 {
		return nil, lw.errs
	}

	if !op.isPureRef() {
		bucket.Children = append(bucket.Children, &Query{
			ID:   pathID([]int{0}),
			Kind: KindPipeline,
			Params: map[string]interface{}{
				"type":         "bucket_script",
				"buckets_path": op.vars,
				"script":       op.script,
			},
		})
	}

	if count := bucket.NodeCount(); count > c.opts.MaxNodes {
		return nil, []*Error{newError(CodeTooComplex, root.Pos(),
			"compiled query has %d aggregation nodes, maximum is %d", count, c.opts.MaxNodes)}
	}

	return bucket, nil
}

// operand is the intermediate result of lowering one expression: a
// script fragment plus the bucket paths of every aggregation value it
// references.
type operand struct {
	script string
	vars   map[string]string
}

// isPureRef reports whether the operand is exactly one aggregation
// reference with no surrounding computation.
func (o operand) isPureRef() bool {
	if len(o.vars) != 1 {
		return false
	}
	for name := range o.vars {
		return o.script == "params."+name
	}
	return false
}

// lowerer walks the folded AST, appending aggregations to the time
// bucket and collecting errors.
type lowerer struct {
	compiler *Compiler
	ctx      types.CompilationContext
	bucket   *Query
	errs     []*Error
}

func (lw *lowerer) fail(err *Error) operand {
	lw.errs = append(lw.errs, err)
	return operand{}
}

// pathID derives the deterministic identifier of a generated
// aggregation from the AST path of the node it lowers.
func pathID(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, "-")
}

// varName turns an aggregation identifier into a script variable.
func varName(id string) string {
	return "v" + strings.ReplaceAll(strings.ReplaceAll(id, "-", "_"), ">", "_")
}

// refOperand builds the operand for a single aggregation reference.
func refOperand(id, ref string) operand {
	name := varName(id)
	return operand{script: "params." + name, vars: map[string]string{name: ref}}
}

func mergeVars(ops ...operand) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, op := range ops {
		for name, ref := range op.vars {
			merged[name] = ref
		}
	}
	return merged
}

func (lw *lowerer) lowerExpr(node formula.Node, path []int) operand {
	switch n := node.(type) {
	case *formula.Literal:
		switch n.Kind {
		case formula.LiteralNumber:
			return operand{script: formatNumber(n.Num)}
		case formula.LiteralBool:
			return operand{script: strconv.FormatBool(n.Bool)}
		default:
			return operand{script: strconv.Quote(n.Str)}
		}

	case *formula.FieldRef:
		return lw.fail(newError(CodeUnsupported, n.Position,
			"field '%s' can only appear as a function argument", n.Name()))

	case *formula.Identifier:
		return lw.fail(newError(CodeUnsupported, n.Position,
			"unresolved identifier '%s'", n.Name))

	case *formula.UnaryOp:
		inner := lw.lowerExpr(n.Operand, append(path, 1))
		script := fmt.Sprintf("(-%s)", inner.script)
		if n.Op == "!" {
			script = fmt.Sprintf("!(%s)", inner.script)
		}
		return operand{script: script, vars: stringVars(mergeVars(inner))}

	case *formula.BinaryOp:
		left := lw.lowerExpr(n.Left, append(path, 1))
		right := lw.lowerExpr(n.Right, append(path, 2))
		return operand{
			script: fmt.Sprintf("(%s %s %s)", left.script, n.Op, right.script),
			vars:   stringVars(mergeVars(left, right)),
		}

	case *formula.FunctionCall:
		return lw.lowerCall(n, path)

	default:
		return lw.fail(newError(CodeUnsupported, node.Pos(), "expression has no lowering rule"))
	}
}

func (lw *lowerer) lowerCall(call *formula.FunctionCall, path []int) operand {
	sig, known := functions.Lookup(call.Name)
	if !known {
		// The validator guarantees known functions; an unknown name
		// here means the compiler was invoked on an unvalidated tree.
		return lw.fail(newError(CodeUnsupported, call.Position, "unknown function '%s'", call.Name))
	}

	switch sig.Category {
	case functions.CategoryAggregation:
		return lw.lowerAggregation(call, path)
	case functions.CategoryTimeSeries, functions.CategoryWindow:
		return lw.lowerPipeline(call, path)
	case functions.CategoryMath:
		return lw.lowerMath(call, path)
	case functions.CategoryConditional:
		return lw.lowerConditional(call, path)
	default:
		return lw.fail(newError(CodeUnsupported, call.Position,
			"function '%s' has no lowering rule", call.Name))
	}
}

// metricTypes maps aggregation function names to the store's metric
// aggregation types.
var metricTypes = map[string]string{
	"count":        "value_count",
	"sum":          "sum",
	"average":      "avg",
	"min":          "min",
	"max":          "max",
	"median":       "median",
	"percentile":   "percentile",
	"unique_count": "cardinality",
	"last_value":   "last_value",
}

// lowerAggregation lowers an aggregation call to a filter aggregation
// scoped to the call's effective time window, containing the metric.
// A time-shift named parameter moves the window back, so current and
// shifted values are comparable within one query round-trip.
func (lw *lowerer) lowerAggregation(call *formula.FunctionCall, path []int) operand {
	var shiftText string
	if shiftArg := call.NamedArg("shift"); shiftArg != nil {
		lit, ok := shiftArg.(*formula.Literal)
		if !ok || lit.Kind != formula.LiteralString {
			return lw.fail(newError(CodeBadTimeShift, shiftArg.Pos(),
				"shift must be a string such as '1d'"))
		}
		shift, err := ParseShift(lit.Str)
		if err != nil {
			return lw.fail(newError(CodeBadTimeShift, shiftArg.Pos(), "%v", err))
		}
		if shift > lw.compiler.opts.MaxLookback {
			return lw.fail(newError(CodeExcessiveLookback, shiftArg.Pos(),
				"time shift '%s' exceeds the maximum lookback of %s", lit.Str, lw.compiler.opts.MaxLookback))
		}
		shiftText = lit.Str
	}

	var kqlFilter map[string]interface{}
	if kqlArg := call.NamedArg("kql"); kqlArg != nil {
		lit, ok := kqlArg.(*formula.Literal)
		if !ok || lit.Kind != formula.LiteralString {
			return lw.fail(newError(CodeBadFilter, kqlArg.Pos(), "kql must be a string"))
		}
		parsed, err := ParseFilter(lit.Str)
		if err != nil {
			return lw.fail(newError(CodeBadFilter, kqlArg.Pos(), "%v", err))
		}
		kqlFilter = parsed
	}

	filterID := pathID(path)
	// The filter aggregation's body is the filter query itself, so the
	// query document's single top-level key merges into the params.
	filterParams := map[string]interface{}{"type": "filter"}
	for key, value := range lw.windowFilter(shiftText, kqlFilter) {
		filterParams[key] = value
	}
	filterAgg := &Query{
		ID:     filterID,
		Kind:   KindFilter,
		Params: filterParams,
	}

	ref := filterID + ">_count"
	if len(call.Args) > 0 {
		field, ok := call.Args[0].(*formula.FieldRef)
		if !ok {
			return lw.fail(newError(CodeUnsupported, call.Args[0].Pos(),
				"argument of %s must be a field", call.Name))
		}
		metricID := filterID + "-metric"
		params := map[string]interface{}{
			"type":  metricTypes[strings.ToLower(call.Name)],
			"field": field.Name(),
		}
		if strings.EqualFold(call.Name, "percentile") {
			params["percent"] = lw.percentileValue(call)
		}
		filterAgg.Children = append(filterAgg.Children, &Query{
			ID:     metricID,
			Kind:   KindMetric,
			Params: params,
		})
		ref = filterID + ">" + metricID
	}

	lw.bucket.Children = append(lw.bucket.Children, filterAgg)
	return refOperand(filterID, ref)
}

func (lw *lowerer) percentileValue(call *formula.FunctionCall) float64 {
	if arg := call.NamedArg("percentile"); arg != nil {
		if lit, ok := arg.(*formula.Literal); ok && lit.Kind == formula.LiteralNumber {
			return lit.Num
		}
	}
	return 95
}

// windowFilter builds the boolean filter for an aggregation's
// effective time window, combined with an optional kql filter.
func (lw *lowerer) windowFilter(shift string, kqlFilter map[string]interface{}) map[string]interface{} {
	tr := lw.ctx.TimeRange
	var rangeFilter map[string]interface{}
	if tr.From == "" && tr.To == "" {
		rangeFilter = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		bounds := make(map[string]interface{})
		if tr.From != "" {
			from := tr.From
			if shift != "" {
				from = shiftRangeBound(from, shift)
			}
			bounds["gte"] = from
		}
		if tr.To != "" {
			to := tr.To
			if shift != "" {
				to = shiftRangeBound(to, shift)
			}
			bounds["lte"] = to
		}
		rangeFilter = map[string]interface{}{
			"range": map[string]interface{}{lw.compiler.opts.TimeField: bounds},
		}
	}

	if kqlFilter == nil {
		return rangeFilter
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"filter": []interface{}{rangeFilter, kqlFilter},
		},
	}
}

// pipelineTypes maps time-series and window function names to the
// store's pipeline aggregation types.
var pipelineTypes = map[string]string{
	"moving_average":    "moving_avg",
	"cumulative_sum":    "cumulative_sum",
	"differences":       "derivative",
	"counter_rate":      "counter_rate",
	"normalize_by_unit": "normalize_by_unit",
	"overall_sum":       "overall_sum",
	"overall_average":   "overall_average",
	"overall_max":       "overall_max",
	"overall_min":       "overall_min",
}

// lowerPipeline lowers time-series and window functions to pipeline
// aggregations over their input series.
func (lw *lowerer) lowerPipeline(call *formula.FunctionCall, path []int) operand {
	if len(call.Args) != 1 {
		return lw.fail(newError(CodeUnsupported, call.Position,
			"function '%s' requires exactly one series argument", call.Name))
	}

	inner := lw.lowerExpr(call.Args[0], append(path, 1))
	if len(lw.errs) > 0 {
		return operand{}
	}

	ref := lw.materialize(inner, append(path, 1))

	params := map[string]interface{}{
		"type":         pipelineTypes[strings.ToLower(call.Name)],
		"buckets_path": ref,
	}

	if strings.EqualFold(call.Name, "moving_average") {
		windowSize := 5
		if arg := call.NamedArg("window"); arg != nil {
			if lit, ok := arg.(*formula.Literal); ok && lit.Kind == formula.LiteralNumber {
				windowSize = cast.ToInt(lit.Num)
			}
		}
		params["window"] = windowSize
	}
	if strings.EqualFold(call.Name, "normalize_by_unit") {
		unit := "1s"
		if arg := call.NamedArg("unit"); arg != nil {
			lit, ok := arg.(*formula.Literal)
			if !ok || lit.Kind != formula.LiteralString {
				return lw.fail(newError(CodeBadTimeShift, arg.Pos(), "unit must be a string such as '1s'"))
			}
			if _, err := ParseShift(lit.Str); err != nil {
				return lw.fail(newError(CodeBadTimeShift, arg.Pos(), "%v", err))
			}
			unit = lit.Str
		}
		params["unit"] = unit
	}

	id := pathID(path)
	lw.bucket.Children = append(lw.bucket.Children, &Query{
		ID:     id,
		Kind:   KindPipeline,
		Params: params,
	})
	return refOperand(id, id)
}

// materialize returns a bucket path for an operand. A pure reference
// uses its aggregation directly; a computed expression becomes its own
// bucket-script aggregation first.
func (lw *lowerer) materialize(op operand, path []int) string {
	if op.isPureRef() {
		for _, ref := range op.vars {
			return ref
		}
	}
	id := pathID(path) + "-expr"
	lw.bucket.Children = append(lw.bucket.Children, &Query{
		ID:   id,
		Kind: KindPipeline,
		Params: map[string]interface{}{
			"type":         "bucket_script",
			"buckets_path": stringMapToInterface(op.vars),
			"script":       op.script,
		},
	})
	return id
}

// mathScripts renders math function calls as script fragments.
var mathScripts = map[string]func(args []string) string{
	"add":      func(a []string) string { return fmt.Sprintf("(%s + %s)", a[0], a[1]) },
	"subtract": func(a []string) string { return fmt.Sprintf("(%s - %s)", a[0], a[1]) },
	"multiply": func(a []string) string { return fmt.Sprintf("(%s * %s)", a[0], a[1]) },
	"divide":   func(a []string) string { return fmt.Sprintf("(%s / %s)", a[0], a[1]) },
	"abs":      func(a []string) string { return fmt.Sprintf("Math.abs(%s)", a[0]) },
	"sqrt":     func(a []string) string { return fmt.Sprintf("Math.sqrt(%s)", a[0]) },
	"pow":      func(a []string) string { return fmt.Sprintf("Math.pow(%s, %s)", a[0], a[1]) },
	"log":      func(a []string) string { return fmt.Sprintf("Math.log(%s)", a[0]) },
	"round":    func(a []string) string { return fmt.Sprintf("Math.round(%s)", a[0]) },
	"floor":    func(a []string) string { return fmt.Sprintf("Math.floor(%s)", a[0]) },
	"ceil":     func(a []string) string { return fmt.Sprintf("Math.ceil(%s)", a[0]) },
	"clamp": func(a []string) string {
		return fmt.Sprintf("Math.min(Math.max(%s, %s), %s)", a[0], a[1], a[2])
	},
}

func (lw *lowerer) lowerMath(call *formula.FunctionCall, path []int) operand {
	if strings.EqualFold(call.Name, "divide") && len(call.Args) == 2 && isLiteralZero(call.Args[1]) {
		return lw.fail(newError(CodeDivisionByZero, call.Position, "division by zero"))
	}

	ops := make([]operand, len(call.Args))
	scripts := make([]string, len(call.Args))
	for i, arg := range call.Args {
		ops[i] = lw.lowerExpr(arg, append(path, i+1))
		scripts[i] = ops[i].script
	}
	if len(lw.errs) > 0 {
		return operand{}
	}

	render, ok := mathScripts[strings.ToLower(call.Name)]
	if !ok {
		return lw.fail(newError(CodeUnsupported, call.Position,
			"function '%s' has no lowering rule", call.Name))
	}
	return operand{script: render(scripts), vars: stringVars(mergeVars(ops...))}
}

// comparisonScripts renders comparison calls, mapping the boolean
// outcome to 1 or 0 so results remain plottable.
var comparisonScripts = map[string]string{
	"eq":  "==",
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

func (lw *lowerer) lowerConditional(call *formula.FunctionCall, path []int) operand {
	ops := make([]operand, len(call.Args))
	scripts := make([]string, len(call.Args))
	for i, arg := range call.Args {
		ops[i] = lw.lowerExpr(arg, append(path, i+1))
		scripts[i] = ops[i].script
	}
	if len(lw.errs) > 0 {
		return operand{}
	}

	name := strings.ToLower(call.Name)
	if op, ok := comparisonScripts[name]; ok {
		return operand{
			script: fmt.Sprintf("(%s %s %s ? 1 : 0)", scripts[0], op, scripts[1]),
			vars:   stringVars(mergeVars(ops...)),
		}
	}
	if name == "ifelse" {
		return operand{
			script: fmt.Sprintf("(%s ? %s : %s)", scripts[0], scripts[1], scripts[2]),
			vars:   stringVars(mergeVars(ops...)),
		}
	}
	return lw.fail(newError(CodeUnsupported, call.Position,
		"function '%s' has no lowering rule", call.Name))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// literalValue converts a literal node to its JSON value.
func literalValue(lit *formula.Literal) interface{} {
	switch lit.Kind {
	case formula.LiteralNumber:
		return lit.Num
	case formula.LiteralBool:
		return lit.Bool
	default:
		return lit.Str
	}
}

// stringVars narrows the merged interface map back to buckets_path
// string values.
func stringVars(merged map[string]interface{}) map[string]string {
	if len(merged) == 0 {
		return nil
	}
	out := make(map[string]string, len(merged))
	for name, ref := range merged {
		out[name] = ref.(string)
	}
	return out
}

func stringMapToInterface(vars map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(vars))
	for name, ref := range vars {
		out[name] = ref
	}
	return out
}
