package helpers

import "fmt"

// BuildResetPasswordHTML renders the password reset email around the link.
func BuildResetPasswordHTML(firstName, link string) string {
	greeting := "Hello,"
	if firstName != "" {
		greeting = fmt.Sprintf("Hello %s,", firstName)
	}
	body := fmt.Sprintf(`
      <p style="font-size:16px;color:#222;margin:0 0 16px 0;">%s</p>
      <p style="font-size:15px;color:#333;">We received a request to reset the password for your Shababna account. The link below is valid for a limited time and can be used once.</p>
      <p><a href="%s" style="display:inline-block;padding:12px 24px;background:#1b8a5a;color:#fff;text-decoration:none;border-radius:6px;font-weight:600;">Reset password</a></p>
      <p style="font-size:12px;color:#999;margin-top:16px;">If the button does not work, copy this link: %s</p>
      <p style="font-size:12px;color:#999;">If you did not request this, you can safely ignore this email.</p>
    `, greeting, link, link)
	return BuildSimpleHTML("Reset your password", body)
}

func BuildSimpleHTML(title, body string) string {
	return fmt.Sprintf(`
<html>
  <body style="font-family:Arial,sans-serif; background:#f9f9f9;">
    <table width="100%%" cellpadding="0" cellspacing="0" bgcolor="#f9f9f9">
      <tr>
        <td align="center" style="padding:32px 0;">
          <table width="500" bgcolor="#fff" cellpadding="24" cellspacing="0" style="border-radius:8px; box-shadow:0 1px 6px #eee;">
            <tr>
              <td>
                <h2 style="color:#1b8a5a; margin-top:0;">%s</h2>
                <div style="font-size:16px; color:#222;">%s</div>
                <hr style="margin:32px 0 16px 0; border:0; border-top:1px solid #eee;">
                <div style="font-size:12px; color:#999;">This email was generated automatically. Please do not reply to it.</div>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>
`, title, body)
}
