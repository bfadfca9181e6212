package server

import (
	"context"
	"log/slog"

	"github.com/raterudder/essent/pkg/essent"
	"github.com/raterudder/essent/pkg/log"
	"github.com/raterudder/essent/pkg/types"
	"github.com/stretchr/testify/mock"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

type mockMeter struct {
	mock.Mock
}

func (m *mockMeter) Login(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockMeter) EANs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMeter) ReadMeter(ctx context.Context, ean string, opts essent.ReadingOptions) (types.MeterInfo, error) {
	args := m.Called(ctx, ean, opts)
	return args.Get(0).(types.MeterInfo), args.Error(1)
}
