package analysis

import "Sentinels/internal/model"

// MissingKeyFallback is returned when no API key is configured.
func MissingKeyFallback() model.AnalysisResult {
	return model.AnalysisResult{
		Summary:        "API Key missing. Please provide a valid Gemini API Key to unlock AI insights. Displaying simulation mode analysis.",
		KeyRisks:       []string{"Unknown Volatility", "Data Gaps"},
		Outlook:        model.OutlookNeutral,
		TopTradeSetups: []model.TradeSetup{},
		Fallback:       true,
	}
}

// UnavailableFallback is returned when the call fails or the reply cannot be used.
func UnavailableFallback() model.AnalysisResult {
	return model.AnalysisResult{
		Summary:        "AI Analysis currently unavailable. Market shows mixed signals based on technical indicators.",
		KeyRisks:       []string{"High Volatility", "Liquidation Cascades"},
		Outlook:        model.OutlookNeutral,
		TopTradeSetups: []model.TradeSetup{},
		Fallback:       true,
	}
}
