package pfconfig

import (
	"testing"

	"github.com/rileyhilliard/pfdash/internal/errors"
	sshtest "github.com/rileyhilliard/pfdash/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `<?xml version="1.0"?>
<pfsense>
	<version>22.9</version>
	<interfaces>
		<wan>
			<enable></enable>
			<if>igb0</if>
			<ipaddr>dhcp</ipaddr>
		</wan>
		<lan>
			<enable></enable>
			<if>bridge0</if>
		</lan>
		<opt1>
			<if>igb2</if>
		</opt1>
		<opt2>
			<if>igb1</if>
		</opt2>
		<opt3>
			<if>ovpns1</if>
		</opt3>
	</interfaces>
	<bridges>
		<bridged>
			<members>opt1</members>
			<bridgeif>bridge0</bridgeif>
		</bridged>
	</bridges>
	<gateways>
		<gateway_item>
			<interface>wan</interface>
			<gateway>dynamic</gateway>
			<name>WAN_DHCP</name>
		</gateway_item>
		<gateway_item>
			<interface>opt2</interface>
			<name>BACKUP_LTE</name>
		</gateway_item>
		<gateway_item>
			<interface>wan</interface>
			<name>WAN_DHCP6</name>
		</gateway_item>
	</gateways>
	<installedpackages>
		<service>
			<name>haproxy</name>
			<executable>haproxy</executable>
		</service>
		<service>
			<name>openvpn</name>
			<executable>openvpn</executable>
		</service>
	</installedpackages>
</pfsense>
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, []Gateway{
		{Name: "BACKUP_LTE", Interface: "igb1"},
		{Name: "WAN_DHCP", Interface: "igb0"},
		{Name: "WAN_DHCP6", Interface: "igb0"},
	}, cfg.Gateways)
	assert.Equal(t, []string{"igb1", "igb0"}, cfg.GatewayInterfaces)
	assert.Equal(t, []string{"bridge0"}, cfg.BridgeInterfaces)
	assert.Equal(t, []string{"igb2", "ovpns1"}, cfg.OtherInterfaces)
	assert.Equal(t, []Service{
		{Name: "haproxy", Executable: "haproxy"},
		{Name: "openvpn", Executable: "openvpn"},
	}, cfg.Services)

	assert.Equal(t, []string{"igb1", "igb0", "bridge0", "igb2", "ovpns1"}, cfg.Interfaces())
}

func TestParse_NoBridgesSection(t *testing.T) {
	cfg, err := Parse([]byte(`<pfsense>
		<interfaces><wan><if>em0</if></wan><lan><if>em1</if></lan></interfaces>
		<gateways><gateway_item><name>GW</name><interface>wan</interface></gateway_item></gateways>
		<installedpackages/>
	</pfsense>`))
	require.NoError(t, err)

	assert.Equal(t, []string{"em0"}, cfg.GatewayInterfaces)
	assert.Empty(t, cfg.BridgeInterfaces)
	assert.Equal(t, []string{"em1"}, cfg.OtherInterfaces)
	assert.Empty(t, cfg.Services)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		xml      string
		contains string
	}{
		{
			name:     "missing interfaces",
			xml:      `<pfsense><gateways/><installedpackages/></pfsense>`,
			contains: "interfaces not found",
		},
		{
			name:     "missing gateways",
			xml:      `<pfsense><interfaces/><installedpackages/></pfsense>`,
			contains: "gateways not found",
		},
		{
			name:     "missing installed packages",
			xml:      `<pfsense><interfaces/><gateways/></pfsense>`,
			contains: "installedpackages not found",
		},
		{
			name:     "interface without if",
			xml:      `<pfsense><interfaces><wan><descr>x</descr></wan></interfaces><gateways/><installedpackages/></pfsense>`,
			contains: "interfaces.wan.if not found",
		},
		{
			name: "gateway on unknown interface",
			xml: `<pfsense><interfaces><wan><if>em0</if></wan></interfaces>
				<gateways><gateway_item><name>GW</name><interface>opt9</interface></gateway_item></gateways>
				<installedpackages/></pfsense>`,
			contains: "gateway GW is defined on interface opt9",
		},
		{
			name: "bridge that is not an interface",
			xml: `<pfsense><interfaces><wan><if>em0</if></wan></interfaces>
				<bridges><bridged><bridgeif>bridge7</bridgeif></bridged></bridges>
				<gateways/><installedpackages/></pfsense>`,
			contains: "bridge bridge7 does not exist",
		},
		{
			name:     "service without executable",
			xml:      `<pfsense><interfaces/><gateways/><installedpackages><service><name>x</name></service></installedpackages></pfsense>`,
			contains: "installedpackages.service.executable not found",
		},
		{
			name:     "not xml",
			xml:      `<pfsense><interfaces>`,
			contains: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.xml))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrDecode))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad(t *testing.T) {
	m := sshtest.NewMockClient("router")
	m.SetFile(Path, sampleConfig)

	cfg, err := Load(m)
	require.NoError(t, err)
	assert.Len(t, cfg.Gateways, 3)
	assert.Equal(t, []string{"cat '/cf/conf/config.xml'"}, m.Commands())
}

func TestLoad_MissingFile(t *testing.T) {
	m := sshtest.NewMockClient("router")

	_, err := Load(m)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDecode))
}
