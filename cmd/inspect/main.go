// Command inspect attaches to a running client process and periodically
// prints its decoded character state, the out-of-process counterpart to
// DataExtractor's sync thread, wired up as a cobra CLI in the teacher's
// own dump-tool style.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ashenvale/charstate/internal/archive"
	"github.com/ashenvale/charstate/internal/classlib"
	"github.com/ashenvale/charstate/internal/gamelog"
	"github.com/ashenvale/charstate/internal/nativepkg"
	"github.com/ashenvale/charstate/internal/poller"
	"github.com/ashenvale/charstate/internal/procmem"
	"github.com/ashenvale/charstate/internal/registry"
	"github.com/ashenvale/charstate/internal/session"
)

var (
	archiveDir string
	pid        int
	is64Bit    bool
	baseAddr   uint64
	period     time.Duration
	verbose    bool
)

// archiveNames is every archive name the DID routing table references;
// an install need not carry all of them (expansions ship new ones, and
// not every region localizes every pack), so a missing file is skipped
// rather than treated as fatal.
var archiveNames = []string{
	"general", "mesh", "gamelogic", "sound", "sound_aux_1",
	"highres", "highres_aux_1", "highres_aux_2", "surface", "surface_aux_1",
	"local_English", "cell_1", "cell_2", "cell_3", "cell_4", "cell_14",
}

func buildLogger() *gamelog.Helper {
	if !verbose {
		return gamelog.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return gamelog.NewNop()
	}
	return gamelog.NewHelper(l)
}

func openArchives(dir string, logger *gamelog.Helper) (*archive.Manager, error) {
	archives := make(map[string]*archive.ArchiveReader)
	for _, name := range archiveNames {
		ar, err := archive.Open(filepath.Join(dir, name+".dat"), logger)
		if err != nil {
			continue
		}
		archives[name] = ar
	}
	if len(archives) == 0 {
		return nil, fmt.Errorf("inspect: no archives found under %s", dir)
	}
	return archive.NewManager(archives, logger), nil
}

// resolveLayout scans imagePath for the four required static anchors
// and assembles the Layout every live decoder keys its reads off of,
// grounded on §4.B's anchor table (procmem.RequiredPatterns).
func resolveLayout(imagePath string, is64Bit bool, base uint64) (*procmem.Layout, error) {
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("inspect: reading image: %w", err)
	}
	layout := procmem.NewLayout(is64Bit, base)
	for _, spec := range procmem.RequiredPatterns {
		pattern, disp := spec.Anchor32, spec.Disp32
		if is64Bit {
			pattern, disp = spec.Anchor64, spec.Disp64
		}
		addr, err := procmem.FindStaticOffset(image, spec.Name, pattern, disp, is64Bit, base)
		if err != nil {
			return nil, err
		}
		switch spec.Name {
		case "Entities":
			layout.EntitiesTableAddr = addr
		case "References":
			layout.ReferencesTableAddr = addr
		case "Client/Account":
			layout.ClientDataAddr = addr
			layout.AccountDataAddr = addr
		case "Storage":
			layout.StorageDataAddr = addr
		}
	}
	return layout, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	layout, err := resolveLayout(args[0], is64Bit, baseAddr)
	if err != nil {
		return err
	}

	archives, err := openArchives(archiveDir, logger)
	if err != nil {
		return err
	}
	defer archives.Close()

	props := registry.NewPropertyRegistry(logger)
	if err := props.Load(ctx, archives); err != nil {
		return fmt.Errorf("inspect: loading property registry: %w", err)
	}
	enums := registry.NewEnumRegistry(archives, logger)

	classes := classlib.NewClassLibrary(nil, nil, logger)
	if err := classes.Load(ctx, archives); err != nil {
		return fmt.Errorf("inspect: loading class library: %w", err)
	}

	mem, err := procmem.AttachLinux(pid, is64Bit)
	if err != nil {
		return fmt.Errorf("inspect: attaching to pid %d: %w", pid, err)
	}
	defer mem.Close()

	native := nativepkg.NewLiveDecoder(mem, layout, props, enums)

	build := func(ctx context.Context) (*session.ExtractionSession, error) {
		return session.Load(ctx, mem, layout, props, enums, classes, native, logger)
	}

	p := poller.New(build, period, logger)
	if err := p.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return p.Err()
		case <-ticker.C:
			printSnapshot(p)
		}
	}
}

func printSnapshot(p *poller.Poller) {
	chars := p.Characters()
	if len(chars) == 0 {
		fmt.Printf("[%s] no character observed yet\n", p.State())
		return
	}
	for name, c := range chars {
		fmt.Printf("%s: entity=%#x\n", name, c.Entity.InstanceID)
	}
}

func main() {
	root := &cobra.Command{
		Use:   "inspect",
		Short: "Inspects a running client's decoded state",
		Long:  "inspect attaches to a running client process and periodically prints its decoded character state.",
	}

	watch := &cobra.Command{
		Use:   "watch <image-path>",
		Short: "Attach and print character snapshots until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	watch.Flags().IntVar(&pid, "pid", 0, "target process id")
	watch.Flags().StringVar(&archiveDir, "archives", "", "directory holding the client's .dat archives")
	watch.Flags().BoolVar(&is64Bit, "64bit", true, "target process is 64-bit")
	watch.Flags().Uint64Var(&baseAddr, "base", 0, "module base address (0 for a non-relocated image)")
	watch.Flags().DurationVar(&period, "period", 2*time.Second, "poll period")
	watch.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	_ = watch.MarkFlagRequired("pid")
	_ = watch.MarkFlagRequired("archives")

	root.AddCommand(watch)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
