package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

var mouseDescriptor = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x02, // Usage (Mouse)
	0xA1, 0x01, // Collection (Application)
	0x09, 0x01, //   Usage (Pointer)
	0xA1, 0x00, //   Collection (Physical)
	0x05, 0x09, //     Usage Page (Button)
	0x19, 0x01, //     Usage Minimum (1)
	0x29, 0x03, //     Usage Maximum (3)
	0x15, 0x00, //     Logical Minimum (0)
	0x25, 0x01, //     Logical Maximum (1)
	0x95, 0x03, //     Report Count (3)
	0x75, 0x01, //     Report Size (1)
	0x81, 0x02, //     Input (Data,Var,Abs)
	0x95, 0x01, //     Report Count (1)
	0x75, 0x05, //     Report Size (5)
	0x81, 0x03, //     Input (Const,Var,Abs)
	0xC0,       //   End Collection
	0xC0, // End Collection
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestServiceDescribe(t *testing.T) {
	svc := newTestService(t)
	desc, err := svc.Describe(mouseDescriptor)
	require.NoError(t, err)
	require.Equal(t, 2, desc.NumCollectionCaps)
	require.Len(t, desc.InputReportLengths, 1)
	// 1 reserved report-ID byte + 3 buttons/5 padding bits (1 byte).
	require.Equal(t, 2, desc.InputReportLengths[0].Bytes)
}

func TestServiceParseCachesResult(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Parse(mouseDescriptor)
	require.NoError(t, err)
	require.Equal(t, uint64(1), svc.CacheStats().Stores)
	require.Equal(t, uint64(0), svc.CacheStats().Hits)

	_, err = svc.Parse(mouseDescriptor)
	require.NoError(t, err)
	require.Equal(t, uint64(1), svc.CacheStats().Stores)
	require.Equal(t, uint64(1), svc.CacheStats().Hits)
}

func TestBatchDescribePreservesOrder(t *testing.T) {
	svc := newTestService(t)

	raws := make([][]byte, 5)
	for i := range raws {
		raws[i] = mouseDescriptor
	}
	descs, err := svc.BatchDescribe(context.Background(), raws)
	require.NoError(t, err)
	require.Len(t, descs, 5)
	for _, d := range descs {
		require.Equal(t, 2, d.NumCollectionCaps)
	}
}

func TestBatchDescribeReportsFailingIndex(t *testing.T) {
	svc := newTestService(t)

	raws := [][]byte{mouseDescriptor, {0xFE, 0x01, 0x02, 0x03, 0x04}}
	_, err := svc.BatchDescribe(context.Background(), raws)
	require.ErrorContains(t, err, "descriptor 1")
}
