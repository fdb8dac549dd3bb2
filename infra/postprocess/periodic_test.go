package postprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(b)
}

func TestSumByNodeAndPeriod(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "node__period__t.csv", "node,solve,period,time,inflow,state\n"+
		"west,roll_1,p2020,t0003,1.5,x\n"+
		"east,roll_0,p2020,t0001,2,x\n"+
		"west,roll_0,p2020,t0001,1,x\n"+
		"east,roll_1,p2020,t0003,3,y\n"+
		"east,roll_1,p2025,t0003,,y\n")
	p := NewPeriodic(dir, []Group{{Key: "node__period", By: []string{"node"}, Method: MethodSum}}, nil)
	require.NoError(t, p.Run())
	want := "node,solve,period,inflow\n" +
		"east,roll_0,p2020,5\n" +
		"east,roll_1,p2025,0\n" +
		"west,roll_1,p2020,2.5\n"
	assert.Equal(t, want, readFile(t, dir, "node__period.csv"))
}

func TestMeanWithoutGroupColumns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "unit_online__period__t.csv", "solve,period,time,coal,gas\n"+
		"r0,p1,t1,1,0\n"+
		"r0,p1,t2,0,1\n"+
		"r1,p1,t3,1,1\n"+
		"r1,p2,t4,1,0.5\n")
	require.NoError(t, NewPeriodic(dir, []Group{{Key: "unit_online__period", Method: MethodMean}}, nil).Run())
	want := "solve,period,coal,gas\n" +
		"r0,p1,0.6666666666666666,0.6666666666666666\n" +
		"r1,p2,1,0.5\n"
	assert.Equal(t, want, readFile(t, dir, "unit_online__period.csv"))
}

func TestRelationRowsKeptInSourceOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "connection__period__t.csv", "solve,period,time,c1,c2\n"+
		",,,west,east\n"+
		",,,east,north\n"+
		"r0,p1,t1,1,2\n"+
		"r1,p1,t2,3,4\n")
	require.NoError(t, NewPeriodic(dir, []Group{{Key: "connection__period", Method: MethodSum, RelationRows: 2}}, nil).Run())
	want := "solve,period,c1,c2\n" +
		",,west,east\n" +
		",,east,north\n" +
		"r0,p1,4,6\n"
	assert.Equal(t, want, readFile(t, dir, "connection__period.csv"))
}

func TestMissingFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewPeriodic(dir, nil, nil).Run())
	_, err := os.Stat(filepath.Join(dir, "costs__period.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestInvalidGroup(t *testing.T) {
	err := NewPeriodic(t.TempDir(), []Group{{Key: "x", Method: "median"}}, nil).Run()
	assert.Error(t, err)
}

func TestDefaultGroups(t *testing.T) {
	groups := DefaultGroups()
	require.Len(t, groups, 8)
	for _, g := range groups {
		assert.NoError(t, g.Validate())
	}
	assert.Equal(t, 5, groups[7].RelationRows)
}
