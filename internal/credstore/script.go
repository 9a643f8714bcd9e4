package credstore

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Script builders for the delegated variant. They live in an untagged file
// so the quoting rules are unit-tested on every platform.

// targetName maps a store name onto the Credential Manager target namespace.
func targetName(name string) string {
	return Service + ":" + name
}

// psQuote escapes a value for a PowerShell single-quoted string literal.
func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// credReadType is the advapi32 P/Invoke boilerplate shared by the read and
// delete scripts. CRED_TYPE_GENERIC = 1.
const credReadType = `
Add-Type -TypeDefinition @"
using System;
using System.Runtime.InteropServices;

public class CredRead {
    [DllImport("advapi32.dll", SetLastError = true, CharSet = CharSet.Unicode)]
    public static extern bool CredReadW(string target, int type, int flags, out IntPtr credential);

    [DllImport("advapi32.dll")]
    public static extern void CredFree(IntPtr credential);

    [StructLayout(LayoutKind.Sequential, CharSet = CharSet.Unicode)]
    public struct CREDENTIAL {
        public int Flags;
        public int Type;
        public string TargetName;
        public string Comment;
        public long LastWritten;
        public int CredentialBlobSize;
        public IntPtr CredentialBlob;
        public int Persist;
        public int AttributeCount;
        public IntPtr Attributes;
        public string TargetAlias;
        public string UserName;
    }

    public static string GetPassword(string target) {
        IntPtr credPtr;
        if (!CredReadW(target, 1, 0, out credPtr)) {
            int code = Marshal.GetLastWin32Error();
            if (code == 1168) { return null; } // ERROR_NOT_FOUND
            throw new Exception("CredReadW failed: " + code);
        }
        try {
            var cred = (CREDENTIAL)Marshal.PtrToStructure(credPtr, typeof(CREDENTIAL));
            if (cred.CredentialBlob != IntPtr.Zero && cred.CredentialBlobSize > 0) {
                return Marshal.PtrToStringUni(cred.CredentialBlob, cred.CredentialBlobSize / 2);
            }
            return "";
        } finally {
            CredFree(credPtr);
        }
    }
}
"@
`

// buildGetScript renders the read script. Missing entries print "MISSING";
// hits print "OK|" plus the base64-encoded secret, so whitespace survives
// the process boundary; any other CredReadW failure throws, which exits the
// helper non-zero.
func buildGetScript(target string) string {
	return fmt.Sprintf(`%s
$result = [CredRead]::GetPassword('%s')
if ($null -eq $result) {
    "MISSING"
} else {
    "OK|" + [Convert]::ToBase64String([System.Text.Encoding]::UTF8.GetBytes($result))
}
`, credReadType, psQuote(target))
}

// parseGetReply decodes the read script's stdout back into a secret.
func parseGetReply(out string) (string, error) {
	if out == "MISSING" {
		return "", ErrNotFound
	}
	if b64, ok := strings.CutPrefix(out, "OK|"); ok {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return "", fmt.Errorf("powershell helper: bad reply encoding: %w", err)
		}
		return string(raw), nil
	}
	return "", fmt.Errorf("powershell helper: unexpected reply %q", out)
}

func buildSetScript(target, secret string) string {
	return fmt.Sprintf(`
Add-Type -TypeDefinition @"
using System;
using System.Runtime.InteropServices;
using System.Text;

public class CredWrite {
    [DllImport("advapi32.dll", SetLastError = true, CharSet = CharSet.Unicode)]
    public static extern bool CredWriteW(ref CREDENTIAL credential, int flags);

    [StructLayout(LayoutKind.Sequential, CharSet = CharSet.Unicode)]
    public struct CREDENTIAL {
        public int Flags;
        public int Type;
        public string TargetName;
        public string Comment;
        public long LastWritten;
        public int CredentialBlobSize;
        public IntPtr CredentialBlob;
        public int Persist;
        public int AttributeCount;
        public IntPtr Attributes;
        public string TargetAlias;
        public string UserName;
    }

    public static void Write(string target, string password) {
        byte[] blob = Encoding.Unicode.GetBytes(password);
        CREDENTIAL cred = new CREDENTIAL();
        cred.Type = 1; // CRED_TYPE_GENERIC
        cred.TargetName = target;
        cred.CredentialBlobSize = blob.Length;
        cred.CredentialBlob = Marshal.AllocHGlobal(blob.Length);
        Marshal.Copy(blob, 0, cred.CredentialBlob, blob.Length);
        cred.Persist = 2; // CRED_PERSIST_LOCAL_MACHINE
        cred.UserName = "";

        try {
            if (!CredWriteW(ref cred, 0)) {
                throw new Exception("CredWriteW failed: " + Marshal.GetLastWin32Error());
            }
        } finally {
            Marshal.FreeHGlobal(cred.CredentialBlob);
        }
    }
}
"@

[CredWrite]::Write('%s', '%s')
`, psQuote(target), psQuote(secret))
}

func buildDeleteScript(target string) string {
	return fmt.Sprintf(`
Add-Type -TypeDefinition @"
using System;
using System.Runtime.InteropServices;

public class CredDelete {
    [DllImport("advapi32.dll", SetLastError = true, CharSet = CharSet.Unicode)]
    public static extern bool CredDeleteW(string target, int type, int flags);
}
"@

if ([CredDelete]::CredDeleteW('%s', 1, 0)) {
    "OK"
} else {
    $code = [Runtime.InteropServices.Marshal]::GetLastWin32Error()
    if ($code -eq 1168) { "MISSING" } else { throw "CredDeleteW failed: $code" }
}
`, psQuote(target))
}
