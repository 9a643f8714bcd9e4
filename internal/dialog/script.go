package dialog

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Script builders for the delegated variant, untagged so the quoting rules
// are unit-tested on every platform.

const dialogCaption = "SSH Key Passphrase"

// psQuote escapes a value for a PowerShell single-quoted string literal.
func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// buildSecretScript renders the CredUI prompt. The dialog writes
// "SAVE|<secret>" or "NOSAVE|<secret>" to stdout, or nothing when the user
// hit cancel (ERROR_CANCELLED, 1223).
func buildSecretScript(prompt string, offerSave bool) string {
	flags := "[CredUI]::CREDUIWIN_GENERIC -bor [CredUI]::CREDUIWIN_IN_CRED_ONLY"
	if offerSave {
		flags += " -bor [CredUI]::CREDUIWIN_CHECKBOX"
	}
	return fmt.Sprintf(`
Add-Type -TypeDefinition @"
using System;
using System.Runtime.InteropServices;
using System.Text;

public class CredUI {
    [DllImport("credui.dll", CharSet = CharSet.Unicode)]
    public static extern int CredUIPromptForWindowsCredentialsW(
        ref CREDUI_INFO pUiInfo, int dwAuthError, ref uint pulAuthPackage,
        IntPtr pvInAuthBuffer, uint ulInAuthBufferSize,
        out IntPtr ppvOutAuthBuffer, out uint pulOutAuthBufferSize,
        ref bool pfSave, int dwFlags);

    [DllImport("credui.dll", CharSet = CharSet.Unicode)]
    public static extern bool CredPackAuthenticationBufferW(
        int dwFlags, string pszUserName, string pszPassword,
        IntPtr pPackedCredentials, ref int pcbPackedCredentials);

    [DllImport("credui.dll", CharSet = CharSet.Unicode)]
    public static extern bool CredUnPackAuthenticationBufferW(
        int dwFlags, IntPtr pAuthBuffer, uint cbAuthBuffer,
        StringBuilder pszUserName, ref int pcchMaxUserName,
        StringBuilder pszDomainName, ref int pcchMaxDomainName,
        StringBuilder pszPassword, ref int pcchMaxPassword);

    [DllImport("ole32.dll")]
    public static extern void CoTaskMemFree(IntPtr pv);

    [StructLayout(LayoutKind.Sequential, CharSet = CharSet.Unicode)]
    public struct CREDUI_INFO {
        public int cbSize;
        public IntPtr hwndParent;
        public string pszMessageText;
        public string pszCaptionText;
        public IntPtr hbmBanner;
    }

    public const int CREDUIWIN_GENERIC = 0x1;
    public const int CREDUIWIN_CHECKBOX = 0x2;
    public const int CREDUIWIN_IN_CRED_ONLY = 0x20;
    public const int ERROR_CANCELLED = 1223;

    public static string Prompt(string caption, string message, int flags, ref bool save) {
        CREDUI_INFO info = new CREDUI_INFO();
        info.cbSize = Marshal.SizeOf(info);
        info.pszCaptionText = caption;
        info.pszMessageText = message;

        int inBufferSize = 0;
        CredPackAuthenticationBufferW(0, "", "", IntPtr.Zero, ref inBufferSize);
        IntPtr inBuffer = Marshal.AllocHGlobal(inBufferSize);
        try {
            if (!CredPackAuthenticationBufferW(0, "", "", inBuffer, ref inBufferSize)) {
                throw new Exception("CredPackAuthenticationBufferW failed: " + Marshal.GetLastWin32Error());
            }

            uint authPackage = 0;
            IntPtr outBuffer;
            uint outBufferSize;

            int result = CredUIPromptForWindowsCredentialsW(
                ref info, 0, ref authPackage, inBuffer, (uint)inBufferSize,
                out outBuffer, out outBufferSize, ref save, flags);

            if (result == ERROR_CANCELLED) {
                return null;
            } else if (result != 0) {
                throw new Exception("CredUIPromptForWindowsCredentialsW error: " + result);
            }

            try {
                StringBuilder user = new StringBuilder(256);
                StringBuilder domain = new StringBuilder(256);
                StringBuilder pass = new StringBuilder(256);
                int userLen = 256, domainLen = 256, passLen = 256;

                if (!CredUnPackAuthenticationBufferW(0, outBuffer, outBufferSize,
                    user, ref userLen, domain, ref domainLen, pass, ref passLen)) {
                    throw new Exception("CredUnPackAuthenticationBufferW failed: " + Marshal.GetLastWin32Error());
                }

                return pass.ToString();
            } finally {
                CoTaskMemFree(outBuffer);
            }
        } finally {
            Marshal.FreeHGlobal(inBuffer);
        }
    }
}
"@

$save = $false
$password = [CredUI]::Prompt('%s', '%s', (%s), [ref]$save)
if ($null -ne $password) {
    $encoded = [Convert]::ToBase64String([System.Text.Encoding]::UTF8.GetBytes($password))
    if ($save) { "SAVE|" + $encoded } else { "NOSAVE|" + $encoded }
}
`, psQuote(dialogCaption), psQuote(prompt), flags)
}

// parseSecretReply decodes the dialog's stdout. The secret travels base64
// encoded so leading/trailing whitespace survives; empty output means the
// user hit cancel.
func parseSecretReply(out string) (Result, error) {
	if out == "" {
		return Result{}, ErrCancelled
	}

	var b64 string
	res := Result{}
	switch {
	case strings.HasPrefix(out, "SAVE|"):
		res.Save = true
		b64 = strings.TrimPrefix(out, "SAVE|")
	case strings.HasPrefix(out, "NOSAVE|"):
		b64 = strings.TrimPrefix(out, "NOSAVE|")
	default:
		return Result{}, fmt.Errorf("powershell dialog: unexpected reply")
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Result{}, fmt.Errorf("powershell dialog: bad reply encoding: %w", err)
	}
	res.Secret = string(raw)
	return res, nil
}

// buildConfirmScript renders a yes/no/cancel message box for host
// authenticity prompts.
func buildConfirmScript(prompt string) string {
	return fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
$result = [System.Windows.Forms.MessageBox]::Show(
    '%s', 'SSH Host Verification',
    [System.Windows.Forms.MessageBoxButtons]::YesNoCancel,
    [System.Windows.Forms.MessageBoxIcon]::Warning)
switch ($result) {
    'Yes' { 'yes' }
    'No'  { 'no' }
}
`, psQuote(prompt))
}
