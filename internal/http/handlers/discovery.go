package handlers

import "net/http"

// Discovery publishes the static x402 service manifest so agent indexes can
// find the paid resource without probing it.
func (a *App) Discovery(w http.ResponseWriter, r *http.Request) {
	base := a.Config.PublicBaseURL
	w.Header().Set("Cache-Control", "public, max-age=3600")
	a.json(w, http.StatusOK, map[string]any{
		"version": "1.0",
		"metadata": map[string]any{
			"name":        "Pulsar",
			"displayName": "Pulsar",
			"description": "Royalty-free instrumental music generation API. Pay-per-generation with x402, no subscriptions.",
			"category":    "AI/Music",
			"tags":        []string{"Music", "AI", "Audio", "Creative", "Agent"},
			"x402Gateway": base,
		},
		"resources": []map[string]any{
			{
				"url":         "/api/generate",
				"method":      "POST",
				"description": "Generate royalty-free instrumental music. Returns 2 unique tracks per request.",
				"price":       "$0.20 USDC",
				"network":     a.Config.PaymentNetwork,
				"input": map[string]any{
					"type": "json",
					"fields": map[string]any{
						"title": map[string]any{"type": "string", "required": true, "description": "Track title (used as creative seed)"},
						"style": map[string]any{"type": "string", "required": true, "description": "Musical style descriptors (e.g. 'lo-fi, jazzy, chill')"},
					},
				},
			},
			{
				"url":         "/api/status/{jobId}",
				"method":      "GET",
				"description": "Check generation status and get download URLs when complete.",
				"price":       "Free",
			},
			{
				"url":         "/api/health",
				"method":      "GET",
				"description": "Health check endpoint.",
				"price":       "Free",
			},
		},
		"payment": map[string]string{
			"network":      a.Config.PaymentNetwork,
			"asset":        "USDC",
			"assetAddress": a.Config.AssetAddress,
			"payTo":        a.Config.PayToAddress,
			"protocol":     "x402",
		},
	})
}
