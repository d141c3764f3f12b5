package server

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	authzhandler "entitlement-gate/internal/authz/handler"
	healthhandler "entitlement-gate/internal/health/handler"
)

// mockServiceRegistrar implements grpc.ServiceRegistrar for testing.
type mockServiceRegistrar struct {
	callCount int
	services  []string
	impls     map[string]interface{}
}

func (m *mockServiceRegistrar) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	m.callCount++
	m.services = append(m.services, desc.ServiceName)
	if m.impls == nil {
		m.impls = make(map[string]interface{})
	}
	m.impls[desc.ServiceName] = impl
}

type allowAll struct{}

func (allowAll) Check(context.Context, any, any) bool { return true }

func TestRegisterServices_AllServicesRegistered(t *testing.T) {
	mockReg := &mockServiceRegistrar{}
	RegisterServices(mockReg, Deps{Gate: allowAll{}})

	if mockReg.callCount != 2 {
		t.Fatalf("RegisterService called %d times, want 2", mockReg.callCount)
	}
	want := []string{authzhandler.ServiceName, healthpb.Health_ServiceDesc.ServiceName}
	for i, name := range want {
		if mockReg.services[i] != name {
			t.Errorf("services[%d] = %q, want %q", i, mockReg.services[i], name)
		}
	}
}

func TestRegisterServices_UsesProvidedHealth(t *testing.T) {
	mockReg := &mockServiceRegistrar{}
	health := healthhandler.NewServer(nil)
	RegisterServices(mockReg, Deps{Gate: allowAll{}, Health: health})

	if got := mockReg.impls[healthpb.Health_ServiceDesc.ServiceName]; got != health {
		t.Errorf("health impl = %v, want provided server", got)
	}
}

func TestRegisterServices_DefaultHealthKnowsAuthorizationService(t *testing.T) {
	mockReg := &mockServiceRegistrar{}
	RegisterServices(mockReg, Deps{Gate: allowAll{}})

	health, ok := mockReg.impls[healthpb.Health_ServiceDesc.ServiceName].(*healthhandler.Server)
	if !ok {
		t.Fatal("default health server not registered")
	}
	resp, err := health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: authzhandler.ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}
