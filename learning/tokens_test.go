package learning

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenadevel/rfc2544-core/internal/driver"
	"github.com/xenadevel/rfc2544-core/model"
	"github.com/xenadevel/rfc2544-core/resource"
)

func TestSetupAddressRefreshBuildsOneTokenPerExpandedDestination(t *testing.T) {
	p := resource.NewPortStruct(
		model.PortIdentity{ChassisID: "c0", Name: "p0"},
		model.PortConfiguration{
			IsRxPort: true,
			IPv4Properties: model.IPProperties{
				Address: net.ParseIP("10.0.0.1"),
			},
		},
		&driver.Port{},
	)
	p.Properties.AddAddressRefreshData(model.ArpRefreshData{
		SourceIP:  net.ParseIP("10.0.0.1"),
		SourceMAC: net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
		HasRange:  true, RangeStart: 1, RangeStop: 2, RangeStep: 1,
		IsRxOnly: true,
	})

	rm := resource.NewResourceManager(model.TestConfiguration{}, []*resource.PortStruct{p})

	tokens, err := SetupAddressRefresh(context.Background(), rm, false)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
	for _, tok := range tokens {
		assert.True(t, tok.IsRxOnly)
		assert.Same(t, p, tok.Port)
	}
}
