package core

import (
	"testing"

	"github.com/bradleyjkemp/cupaloy/v2"
	"github.com/stretchr/testify/assert"
)

func samplePlan() LaunchPlan {
	return LaunchPlan{
		InstanceID:         "survival",
		VersionID:          "fabric-loader-0.15.11-1.20.1",
		BaseVersionID:      "1.20.1",
		Loader:             LoaderFabric,
		LoaderVersion:      "0.15.11",
		JavaPath:           "/opt/java/17/bin/java",
		JavaArgs:           []string{"-Xmx2048M", "-Djava.library.path=/data/survival/.runtime/natives", "-cp", "/data/libraries/a.jar:/data/versions/1.20.1/1.20.1.jar"},
		MainClass:          FabricMainClass,
		GameArgs:           []string{"--username", "Steve", "--accessToken", "s3cr3t", "--gameDir", "/data/My Worlds"},
		Classpath:          []string{"/data/libraries/a.jar", "/data/versions/1.20.1/1.20.1.jar"},
		ClasspathSeparator: ":",
		Auth:               Auth{PlayerName: "Steve", AccessToken: "s3cr3t", UserType: "msa"},
	}
}

func TestCommandText(t *testing.T) {
	plan := samplePlan()
	text := plan.CommandText()
	assert.NotContains(t, text, "s3cr3t")
	assert.Contains(t, text, `"/data/My Worlds"`)
	cupaloy.SnapshotT(t, text)
}

func TestCommandLine(t *testing.T) {
	plan := samplePlan()
	cmd := plan.CommandLine()
	assert.Equal(t, plan.JavaPath, cmd[0])
	assert.Equal(t, plan.MainClass, cmd[len(plan.JavaArgs)+1])
	assert.Equal(t, "s3cr3t", cmd[len(cmd)-3])
	assert.Equal(t, "/data/libraries/a.jar:/data/versions/1.20.1/1.20.1.jar", plan.ClasspathString())
}

func TestInputsHash(t *testing.T) {
	inst := Instance{ID: "a", GameVersion: "1.20.1", Loader: "fabric"}
	auth := Auth{PlayerName: "Steve", UserType: "msa"}
	h := InputsHash(inst, "doc", "/java", auth)
	assert.Len(t, h, 64)
	assert.Equal(t, h, InputsHash(inst, "doc", "/java", Auth{PlayerName: "Steve", UserType: "msa", AccessToken: "rotated"}))
	assert.NotEqual(t, h, InputsHash(inst, "doc2", "/java", auth))
	inst.LoaderVersion = "0.16.0"
	assert.NotEqual(t, h, InputsHash(inst, "doc", "/java", auth))
}

func TestPlanDiff(t *testing.T) {
	previous := samplePlan()
	same, err := PlanDiff(previous, samplePlan())
	assert.NoError(t, err)
	assert.Empty(t, same)

	current := samplePlan()
	current.Classpath = []string{"/data/libraries/b.jar", "/data/versions/1.20.1/1.20.1.jar"}
	current.JavaArgs = []string{"-Xmx4096M", "-Djava.library.path=/data/survival/.runtime/natives", "-cp", current.ClasspathString()}
	diff, err := PlanDiff(previous, current)
	assert.NoError(t, err)
	assert.Contains(t, diff, "-jvm -Xmx2048M\n+jvm -Xmx4096M")
	assert.Contains(t, diff, "-classpath /data/libraries/a.jar\n+classpath /data/libraries/b.jar")
	assert.NotContains(t, diff, "s3cr3t")
}
