package mocks

//go:generate mockgen -destination=./mock_candle_source.go -package=mocks github.com/rxtech-lab/argo-signal/pkg/marketdata/provider CandleSource
//go:generate mockgen -destination=./mock_ledger.go -package=mocks github.com/rxtech-lab/argo-signal/internal/cooldown Ledger
//go:generate mockgen -destination=./mock_journal.go -package=mocks github.com/rxtech-lab/argo-signal/internal/history Journal
