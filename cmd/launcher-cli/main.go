package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/synthlab/launcher/internal/config"
	"github.com/synthlab/launcher/internal/download"
	"github.com/synthlab/launcher/internal/errs"
	"github.com/synthlab/launcher/internal/launcher"
	"github.com/synthlab/launcher/internal/task"
)

// pollInterval is the host loop tick; handles are polled, never awaited
// before their poll reports terminal.
const pollInterval = 100 * time.Millisecond

func main() {
	var (
		versionFlag = flag.String("version", "latest", "Version ID to prepare, or \"latest\"")
		configFlag  = flag.String("config", "", "Path to settings file")
		loginFlag   = flag.Bool("login", false, "Sign in with a device code before preparing")
		jvmFlag     = flag.String("add-jvm", "", "Probe and register a Java binary, then exit")
		listFlag    = flag.Bool("list", false, "List manifest versions and exit")
		launchFlag  = flag.Bool("print-launch", false, "Print the assembled launch command")
		verboseFlag = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	session, err := launcher.New(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	session.SetLogger(newLogger(*verboseFlag))

	// Forward interrupts as cancellation to whatever is in flight.
	cancels := make(chan func(), 8)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		for {
			select {
			case cancel := <-cancels:
				cancel()
			default:
				return
			}
		}
	}()

	if *jvmFlag != "" {
		addJVM(session, cancels, *jvmFlag)
		return
	}

	drainUnit(session.ResolveManifest(), cancels, "resolve manifest")

	if *listFlag {
		listVersions(session)
		return
	}

	if *loginFlag {
		login(session, cancels)
	}

	index := findVersion(session, *versionFlag)
	fmt.Printf("Preparing version %s\n", mustVersionName(session, index))
	drainUnit(session.ResolveVersion(index), cancels, "resolve version")

	runPipelines(session, cancels)

	if *launchFlag {
		printLaunch(session)
	}
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// drainUnit polls one handle to terminal, then awaits it.
func drainUnit(handle *task.Task[task.Unit], cancels chan func(), op string) {
	cancels <- handle.Cancel
	for !handle.Poll() {
		time.Sleep(pollInterval)
	}
	if _, err := handle.Await(); err != nil {
		fail(op, err)
	}
}

func fail(op string, err error) {
	if errs.IsCancelled(err) {
		fmt.Println("Cancelled.")
		os.Exit(130)
	}
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", op, err)
	os.Exit(1)
}

func listVersions(session *launcher.State) {
	n, err := session.ManifestLen()
	if err != nil {
		fail("list versions", err)
	}
	for i := 0; i < n; i++ {
		name, _ := session.VersionName(i)
		kind, _ := session.VersionKind(i)
		fmt.Printf("%-24s %s\n", name, kind)
	}
}

func findVersion(session *launcher.State, id string) int {
	if id == "latest" {
		latest, err := session.LatestRelease()
		if err != nil {
			fail("find version", err)
		}
		id = latest
	}
	n, err := session.ManifestLen()
	if err != nil {
		fail("find version", err)
	}
	for i := 0; i < n; i++ {
		if name, _ := session.VersionName(i); name == id {
			return i
		}
	}
	fmt.Fprintf(os.Stderr, "Error: version %q not in manifest\n", id)
	os.Exit(1)
	return 0
}

func mustVersionName(session *launcher.State, i int) string {
	name, err := session.VersionName(i)
	if err != nil {
		fail("version name", err)
	}
	return name
}

func login(session *launcher.State, cancels chan func()) {
	request := session.RequestDeviceCode()
	cancels <- request.Cancel
	for !request.Poll() {
		time.Sleep(pollInterval)
	}
	dc, err := request.Await()
	if err != nil {
		fail("request device code", err)
	}

	fmt.Printf("Open %s and enter the code: %s\n", dc.VerificationURI, dc.UserCode)
	fmt.Println("Waiting for authorization...")

	poll := session.PollDeviceAuth()
	cancels <- poll.Cancel
	for !poll.Poll() {
		time.Sleep(pollInterval)
	}
	index, err := poll.Await()
	if err != nil {
		fail("device authorization", err)
	}
	name, _ := session.AccountName(index)
	fmt.Printf("Signed in as %s\n", name)
}

func addJVM(session *launcher.State, cancels chan func(), path string) {
	handle := session.AddJVM(path)
	cancels <- handle.Cancel
	for !handle.Poll() {
		time.Sleep(pollInterval)
	}
	index, err := handle.Await()
	if err != nil {
		fail("add jvm", err)
	}
	name, _ := session.JVMName(index)
	fmt.Printf("Registered %s at index %d\n", name, index)
}

// runPipelines drives the three download pipelines as the host contract
// requires: poll all, report progress, await each independently, and
// gate completion on all three succeeding.
func runPipelines(session *launcher.State, cancels chan func()) {
	assets, assetsCounter := download.Assets(session)
	libs, libsCounter := download.Libraries(session)
	jar, jarCounter := download.Jar(session)
	for _, cancel := range []func(){assets.Cancel, libs.Cancel, jar.Cancel} {
		cancels <- cancel
	}

	counters := map[string]*task.Counter{
		"assets": assetsCounter, "libraries": libsCounter, "jar": jarCounter,
	}
	for !assets.Poll() || !libs.Poll() || !jar.Poll() {
		line := ""
		for _, name := range []string{"assets", "libraries", "jar"} {
			total, finished := counters[name].Snapshot()
			if total == 0 {
				line += fmt.Sprintf("%s starting  ", name)
			} else {
				line += fmt.Sprintf("%s %d/%d  ", name, finished, total)
			}
		}
		fmt.Printf("\r%-70s", line)
		time.Sleep(pollInterval)
	}
	fmt.Println()

	// Await every pipeline even when one failed, then report the first
	// real failure.
	var firstErr error
	if _, err := assets.Await(); err != nil {
		firstErr = fmt.Errorf("assets: %w", err)
	}
	if _, err := libs.Await(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("libraries: %w", err)
	}
	if _, err := jar.Await(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("jar: %w", err)
	}
	if firstErr != nil {
		fail("download", firstErr)
	}
	fmt.Println("All downloads complete.")
}

func printLaunch(session *launcher.State) {
	if session.AccountsLen() == 0 {
		fmt.Println("Sign in (-login) to assemble the launch command.")
		return
	}
	cmd, err := session.LaunchCommand(0, 0)
	if err != nil {
		fail("assemble launch command", err)
	}
	fmt.Println("Launch command:")
	for _, arg := range cmd {
		fmt.Printf("  %s\n", arg)
	}
}
