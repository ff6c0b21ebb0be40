package window

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"
)

// OSCollaborator drives the real desktop: process lookup through robotgo,
// window queries and activation through the platform scripting tool.
type OSCollaborator struct {
	logger *zap.Logger
	goos   string
}

// NewOSCollaborator builds the production collaborator.
func NewOSCollaborator(logger *zap.Logger) *OSCollaborator {
	return &OSCollaborator{logger: logger, goos: runtime.GOOS}
}

func (c *OSCollaborator) Find(ctx context.Context, desc Descriptor) (*Handle, error) {
	if desc.Title != "" || desc.Class != "" {
		if h, err := c.findByWindow(ctx, desc); err == nil {
			return h, nil
		}
	}
	if desc.Process != "" {
		return c.findByProcess(desc)
	}
	return nil, ErrWindowNotFound
}

// findByProcess scans the process table.
func (c *OSCollaborator) findByProcess(desc Descriptor) (*Handle, error) {
	processes, err := robotgo.Process()
	if err != nil {
		return nil, fmt.Errorf("process list: %w", err)
	}
	for _, proc := range processes {
		if desc.MatchProcess(proc.Name) {
			return &Handle{PID: proc.Pid, Title: proc.Name}, nil
		}
	}
	return nil, ErrWindowNotFound
}

// findByWindow enumerates top-level windows on platforms that can.
func (c *OSCollaborator) findByWindow(ctx context.Context, desc Descriptor) (*Handle, error) {
	switch c.goos {
	case "windows":
		return c.findWindows(ctx, desc)
	case "darwin":
		return c.findDarwin(ctx, desc)
	default:
		return c.findX11(ctx, desc)
	}
}

func (c *OSCollaborator) findWindows(ctx context.Context, desc Descriptor) (*Handle, error) {
	script := `
        Add-Type @"
        using System;
        using System.Runtime.InteropServices;
        using System.Text;
        public class WindowScan {
            public delegate bool EnumWindowsProc(IntPtr hWnd, IntPtr lParam);
            [DllImport("user32.dll")] public static extern bool EnumWindows(EnumWindowsProc enumProc, IntPtr lParam);
            [DllImport("user32.dll")] public static extern bool IsWindowVisible(IntPtr hWnd);
            [DllImport("user32.dll")] public static extern int GetWindowText(IntPtr hWnd, StringBuilder text, int count);
            [DllImport("user32.dll")] public static extern int GetClassName(IntPtr hWnd, StringBuilder text, int count);
            [DllImport("user32.dll")] public static extern int GetWindowThreadProcessId(IntPtr hWnd, out int pid);
        }
"@
        [WindowScan+EnumWindowsProc]$cb = {
            param([IntPtr]$hwnd, [IntPtr]$lParam)
            if ([WindowScan]::IsWindowVisible($hwnd)) {
                $title = New-Object System.Text.StringBuilder 256
                $class = New-Object System.Text.StringBuilder 256
                [void][WindowScan]::GetWindowText($hwnd, $title, 256)
                [void][WindowScan]::GetClassName($hwnd, $class, 256)
                $procId = 0
                [void][WindowScan]::GetWindowThreadProcessId($hwnd, [ref]$procId)
                if ($title.Length -gt 0) {
                    Write-Output ("{0}|{1}|{2}|{3}" -f $hwnd.ToInt64(), $procId, $class.ToString(), $title.ToString())
                }
            }
            return $true
        }
        [void][WindowScan]::EnumWindows($cb, [IntPtr]::Zero)`

	out, err := c.output(ctx, "powershell", "-NoProfile", "-Command", script)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "|", 4)
		if len(parts) != 4 {
			continue
		}
		id, _ := strconv.ParseInt(parts[0], 10, 64)
		pid, _ := strconv.Atoi(parts[1])
		class, title := parts[2], parts[3]
		if desc.MatchTitle(title) && desc.MatchClass(class) {
			return &Handle{ID: id, PID: pid, Title: title, Class: class}, nil
		}
	}
	return nil, ErrWindowNotFound
}

func (c *OSCollaborator) findDarwin(ctx context.Context, desc Descriptor) (*Handle, error) {
	script := `
		set out to {}
		tell application "System Events"
			repeat with proc in (every process whose background only is false)
				set procID to unix id of proc
				repeat with w in (every window of proc)
					set end of out to (procID as string) & "|" & (name of w)
				end repeat
			end repeat
		end tell
		set AppleScript's text item delimiters to linefeed
		return out as string`

	out, err := c.output(ctx, "osascript", "-e", script)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "|", 2)
		if len(parts) != 2 {
			continue
		}
		pid, _ := strconv.Atoi(parts[0])
		if desc.MatchTitle(parts[1]) {
			return &Handle{PID: pid, Title: parts[1]}, nil
		}
	}
	return nil, ErrWindowNotFound
}

func (c *OSCollaborator) findX11(ctx context.Context, desc Descriptor) (*Handle, error) {
	pattern := desc.Title
	if pattern == "" {
		pattern = desc.Class
	}
	out, err := c.output(ctx, "xdotool", "search", "--onlyvisible", "--name", pattern)
	if err != nil {
		return nil, ErrWindowNotFound
	}
	for _, line := range strings.Split(out, "\n") {
		id, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			continue
		}
		title, _ := c.output(ctx, "xdotool", "getwindowname", strconv.FormatInt(id, 10))
		title = strings.TrimSpace(title)
		if desc.MatchTitle(title) {
			pidOut, _ := c.output(ctx, "xdotool", "getwindowpid", strconv.FormatInt(id, 10))
			pid, _ := strconv.Atoi(strings.TrimSpace(pidOut))
			return &Handle{ID: id, PID: pid, Title: title}, nil
		}
	}
	return nil, ErrWindowNotFound
}

func (c *OSCollaborator) Rect(_ context.Context, h *Handle) (Rect, error) {
	if h.PID == 0 {
		return Rect{}, fmt.Errorf("no pid for window %q", h.Title)
	}
	x, y, w, hh := robotgo.GetBounds(h.PID)
	if w == 0 && hh == 0 {
		return Rect{}, fmt.Errorf("empty bounds for pid %d", h.PID)
	}
	return Rect{X: x, Y: y, W: w, H: hh}, nil
}

func (c *OSCollaborator) Restore(ctx context.Context, h *Handle) error {
	switch c.goos {
	case "windows":
		if h.ID != 0 {
			// SW_RESTORE = 9.
			script := fmt.Sprintf(`
        Add-Type @"
        using System;
        using System.Runtime.InteropServices;
        public class WindowActivator {
            [DllImport("user32.dll")] public static extern bool ShowWindow(IntPtr hWnd, int nCmdShow);
        }
"@
        [void][WindowActivator]::ShowWindow([IntPtr]::new(%d), 9)`, h.ID)
			return c.run(ctx, "powershell", "-NoProfile", "-Command", script)
		}
		return nil
	case "darwin":
		// Activation un-minimizes on macOS.
		return nil
	default:
		if h.ID != 0 {
			return c.run(ctx, "xdotool", "windowmap", strconv.FormatInt(h.ID, 10))
		}
		return nil
	}
}

func (c *OSCollaborator) BringToForeground(ctx context.Context, h *Handle) error {
	switch c.goos {
	case "windows":
		if h.ID != 0 {
			script := fmt.Sprintf(`
        Add-Type @"
        using System;
        using System.Runtime.InteropServices;
        public class WindowActivator {
            [DllImport("user32.dll")] public static extern bool SetForegroundWindow(IntPtr hWnd);
            [DllImport("user32.dll")] public static extern bool IsWindow(IntPtr hWnd);
        }
"@
        $hwnd = [IntPtr]::new(%d)
        if (-not [WindowActivator]::IsWindow($hwnd)) { Write-Output "Invalid"; exit }
        [void][WindowActivator]::SetForegroundWindow($hwnd)
        Write-Output "Ok"`, h.ID)
			out, err := c.output(ctx, "powershell", "-NoProfile", "-Command", script)
			if err != nil {
				return err
			}
			if strings.TrimSpace(out) == "Invalid" {
				return fmt.Errorf("stale window handle %d", h.ID)
			}
			return nil
		}
		robotgo.ActivePid(h.PID)
		return nil

	case "darwin":
		script := fmt.Sprintf(`
		tell application "System Events"
			set frontmost of first process whose unix id is %d to true
		end tell`, h.PID)
		if err := c.run(ctx, "osascript", "-e", script); err != nil {
			robotgo.ActivePid(h.PID)
		}
		return nil

	default:
		if h.ID != 0 {
			return c.run(ctx, "xdotool", "windowactivate", strconv.FormatInt(h.ID, 10))
		}
		robotgo.ActivePid(h.PID)
		return nil
	}
}

func (c *OSCollaborator) OpenAssociatedResource(ctx context.Context, desc Descriptor) error {
	resource := desc.Resource
	if resource == "" && desc.Process != "" {
		resource = desc.Process
	}
	if resource == "" {
		return fmt.Errorf("descriptor names no resource to open")
	}

	c.logger.Info("opening associated resource",
		zap.String("resource", resource),
		zap.String("program", desc.Program))

	switch c.goos {
	case "windows":
		if desc.Program != "" {
			return c.run(ctx, desc.Program, resource)
		}
		return c.run(ctx, "cmd", "/c", "start", "", resource)
	case "darwin":
		if desc.Program != "" {
			return c.run(ctx, "open", "-a", desc.Program, resource)
		}
		return c.run(ctx, "open", resource)
	default:
		if desc.Program != "" {
			return c.run(ctx, desc.Program, resource)
		}
		return c.run(ctx, "xdg-open", resource)
	}
}

func (c *OSCollaborator) EnumerateControls(ctx context.Context, h *Handle) ([]Control, error) {
	switch c.goos {
	case "windows":
		return c.enumerateWindows(ctx, h)
	case "darwin":
		return c.enumerateDarwin(ctx, h)
	default:
		return nil, fmt.Errorf("control enumeration not supported on %s", c.goos)
	}
}

func (c *OSCollaborator) enumerateWindows(ctx context.Context, h *Handle) ([]Control, error) {
	script := fmt.Sprintf(`
        Add-Type @"
        using System;
        using System.Runtime.InteropServices;
        using System.Text;
        public class ControlScan {
            public delegate bool EnumChildProc(IntPtr hWnd, IntPtr lParam);
            [DllImport("user32.dll")] public static extern bool EnumChildWindows(IntPtr hWndParent, EnumChildProc enumProc, IntPtr lParam);
            [DllImport("user32.dll")] public static extern int GetWindowText(IntPtr hWnd, StringBuilder text, int count);
            [DllImport("user32.dll")] public static extern bool GetWindowRect(IntPtr hWnd, out RECT rect);
            [StructLayout(LayoutKind.Sequential)]
            public struct RECT { public int Left; public int Top; public int Right; public int Bottom; }
        }
"@
        [ControlScan+EnumChildProc]$cb = {
            param([IntPtr]$hwnd, [IntPtr]$lParam)
            $text = New-Object System.Text.StringBuilder 256
            [void][ControlScan]::GetWindowText($hwnd, $text, 256)
            if ($text.Length -gt 0) {
                $rect = New-Object ControlScan+RECT
                [void][ControlScan]::GetWindowRect($hwnd, [ref]$rect)
                Write-Output ("{0}|{1}|{2}|{3}|{4}" -f $text.ToString(), $rect.Left, $rect.Top, ($rect.Right - $rect.Left), ($rect.Bottom - $rect.Top))
            }
            return $true
        }
        [void][ControlScan]::EnumChildWindows([IntPtr]::new(%d), $cb, [IntPtr]::Zero)`, h.ID)

	out, err := c.output(ctx, "powershell", "-NoProfile", "-Command", script)
	if err != nil {
		return nil, err
	}
	var controls []Control
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "|", 5)
		if len(parts) != 5 {
			continue
		}
		x, _ := strconv.Atoi(parts[1])
		y, _ := strconv.Atoi(parts[2])
		w, _ := strconv.Atoi(parts[3])
		hh, _ := strconv.Atoi(parts[4])
		controls = append(controls, Control{
			Label: parts[0],
			Rect:  Rect{X: x, Y: y, W: w, H: hh},
		})
	}
	return controls, nil
}

func (c *OSCollaborator) enumerateDarwin(ctx context.Context, h *Handle) ([]Control, error) {
	script := fmt.Sprintf(`
		set out to {}
		tell application "System Events"
			set proc to first process whose unix id is %d
			repeat with b in (every button of window 1 of proc)
				set {bx, by} to position of b
				set {bw, bh} to size of b
				set end of out to (name of b) & "|" & bx & "|" & by & "|" & bw & "|" & bh
			end repeat
		end tell
		set AppleScript's text item delimiters to linefeed
		return out as string`, h.PID)

	out, err := c.output(ctx, "osascript", "-e", script)
	if err != nil {
		return nil, err
	}
	var controls []Control
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), "|", 5)
		if len(parts) != 5 {
			continue
		}
		x, _ := strconv.Atoi(parts[1])
		y, _ := strconv.Atoi(parts[2])
		w, _ := strconv.Atoi(parts[3])
		hh, _ := strconv.Atoi(parts[4])
		controls = append(controls, Control{
			Label: parts[0],
			Rect:  Rect{X: x, Y: y, W: w, H: hh},
		})
	}
	return controls, nil
}

func (c *OSCollaborator) run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %v: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (c *OSCollaborator) output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}
