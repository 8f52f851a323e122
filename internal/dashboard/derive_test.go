package dashboard

import (
	"testing"

	"octopanel/pkg/sdk"

	"github.com/stretchr/testify/assert"
)

func TestUnlimitedGaugesNeverAlarm(t *testing.T) {
	cpu := CPUGauge(500, 0)
	assert.Equal(t, "Unlimited", cpu.Limit)
	assert.False(t, cpu.HasPercent)
	assert.False(t, cpu.Alarm)

	mem := MemoryGauge(1<<40, 0)
	assert.Equal(t, "Unlimited", mem.Limit)
	assert.False(t, mem.HasPercent)
	assert.False(t, mem.Alarm)
	assert.Zero(t, mem.Percent)
}

func TestCPUWithoutLimitAt80Percent(t *testing.T) {
	g := CPUGauge(80, 0)
	assert.False(t, g.HasPercent)
	assert.False(t, g.Alarm)
	assert.Equal(t, "80 %", g.Current)
}

func TestMemoryAlarmAt95Of100MB(t *testing.T) {
	g := MemoryGauge(95*mib, 100)
	assert.True(t, g.Alarm)
	assert.True(t, g.HasPercent)
	assert.InDelta(t, 95, g.Percent, 0.0001)
	assert.Equal(t, "100 MiB", g.Limit)
	assert.Equal(t, "95 MiB", g.Current)
}

func TestAlarmThresholdOnRawValues(t *testing.T) {
	tests := []struct {
		name    string
		bytes   int64
		limitMB int64
		want    bool
	}{
		{"exactly 90 percent", 90 * mib, 100, true},
		{"one byte below", 90*mib - 1, 100, false},
		{"over the limit", 150 * mib, 100, true},
		{"zero limit", 150 * mib, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ByteAlarm(tt.bytes, tt.limitMB))
		})
	}

	assert.True(t, CPUAlarm(90, 100))
	assert.False(t, CPUAlarm(89.9, 100))
	assert.True(t, CPUAlarm(180, 200))
	assert.False(t, CPUAlarm(1000, 0))
}

func TestGaugeClampIsDisplayOnly(t *testing.T) {
	g := DiskGauge(300*mib, 100)
	assert.InDelta(t, 300, g.Percent, 0.0001)
	assert.Equal(t, float64(100), g.Clamped())
	assert.True(t, g.Alarm)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 Bytes", FormatBytes(0))
	assert.Equal(t, "512 Bytes", FormatBytes(512))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "1 GiB", FormatBytes(1<<30))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0s", FormatUptime(0))
	assert.Equal(t, "42s", FormatUptime(42_000))
	assert.Equal(t, "2m 5s", FormatUptime(125_000))
	assert.Equal(t, "1h 1m 1s", FormatUptime(3_661_000))
	assert.Equal(t, "1d 2h 3m", FormatUptime((86400+2*3600+3*60)*1000))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Offline", StatusLabel("offline"))
	assert.Equal(t, "Online", StatusLabel("running"))
	assert.Equal(t, "Starting", StatusLabel("starting"))
	assert.Equal(t, "Stopping", StatusLabel("stopping"))
}

func TestUnavailableAndAddress(t *testing.T) {
	srv := &sdk.Server{}
	_, ok := Unavailable(srv, nil)
	assert.False(t, ok)
	assert.Equal(t, NotAvail, Address(srv))
	assert.Equal(t, NotAvail, Port(srv))

	label, ok := Unavailable(srv, &sdk.ServerStats{IsSuspended: true})
	assert.True(t, ok)
	assert.Equal(t, "Server Suspended", label)

	srv.IsInstalling = true
	label, _ = Unavailable(srv, nil)
	assert.Equal(t, "Installing Server", label)

	srv.Allocations = []sdk.Allocation{
		{IP: "10.0.0.1", Port: 25565},
		{IP: "10.0.0.1", Port: 25566, IsDefault: true},
	}
	assert.Equal(t, "10.0.0.1:25566", Address(srv))
	assert.Equal(t, "25566", Port(srv))
}
