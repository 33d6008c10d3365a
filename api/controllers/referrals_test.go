package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/grupobarca/barca-backend/internal/referrals"
)

type testReferralsService struct {
	statsFn    func(ctx context.Context, referrerID uuid.UUID) (*referrals.Stats, error)
	allocateFn func(ctx context.Context, userID uuid.UUID) (string, error)
}

func (s *testReferralsService) ComputeStats(ctx context.Context, referrerID uuid.UUID) (*referrals.Stats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx, referrerID)
	}
	return &referrals.Stats{}, nil
}

func (s *testReferralsService) AllocateCode(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.allocateFn != nil {
		return s.allocateFn(ctx, userID)
	}
	return "", nil
}

func TestReferralStatsUsesCallerIdentity(t *testing.T) {
	userID := uuid.New()
	svc := &testReferralsService{
		statsFn: func(ctx context.Context, referrerID uuid.UUID) (*referrals.Stats, error) {
			if referrerID != userID {
				t.Fatalf("unexpected referrer %s", referrerID)
			}
			return &referrals.Stats{TotalReferrals: 2, ActiveReferrals: 1, TotalBonusCents: 1500, PendingBonusCents: 1000, ConversionRate: 0.5}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/referrals/stats", nil)
	req = authedRequest(req, userID)
	resp := httptest.NewRecorder()
	ReferralStats(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data referrals.Stats `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.TotalBonusCents != 1500 || envelope.Data.ConversionRate != 0.5 {
		t.Fatalf("unexpected stats %+v", envelope.Data)
	}
}

func TestReferralStatsRequiresIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/referrals/stats", nil)
	resp := httptest.NewRecorder()
	ReferralStats(&testReferralsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAllocateReferralCodeReturnsCreated(t *testing.T) {
	userID := uuid.New()
	svc := &testReferralsService{
		allocateFn: func(ctx context.Context, id uuid.UUID) (string, error) {
			if id != userID {
				t.Fatalf("unexpected user %s", id)
			}
			return "AB12CD34", nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/referrals/code", nil)
	req = authedRequest(req, userID)
	resp := httptest.NewRecorder()
	AllocateReferralCode(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var envelope struct {
		Data referrals.AllocateCodeResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Code != "AB12CD34" {
		t.Fatalf("unexpected code %q", envelope.Data.Code)
	}
}
