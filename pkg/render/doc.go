// Package render runs server render passes over shared state services.
//
// A Pipeline resets the state-service store before each pass so no instance
// cached by one request is visible to the next, records the request props as
// the store's locals and injects a bootstrap script carrying the same props
// for the client to re-mount with.
//
// # Basic Usage
//
//	pipeline := render.NewPipeline(render.WithDoctype("<!DOCTYPE html>"))
//
//	html, err := pipeline.Render(ctx, statesvc.Props{"user": "ada"},
//	    func(ctx context.Context, props statesvc.Props) (string, error) {
//	        return renderPage(props)
//	    })
//
// The document gains, just before </head>:
//
//	<script id="statesvc-script-..." type="application/javascript">
//	var __STATESVC_PROPS__={"user":"ada"};(function(){...})();
//	</script>
//
// # Tracing
//
// Each pass runs inside a "statesvc.render" span from the global
// OpenTelemetry tracer provider (or WithTracer), annotated with the number
// of props, the cached instance count before the reset and the document
// size.
package render
